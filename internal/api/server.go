package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/netpyoung/booknav/internal/config"
	"github.com/netpyoung/booknav/internal/dom"
	"github.com/netpyoung/booknav/internal/session"
	"github.com/netpyoung/booknav/internal/sidebar"
	"github.com/netpyoung/booknav/internal/stats"
)

// Server is the HTTP API that mounts the sidebar for book pages.
type Server struct {
	router   chi.Router
	tree     string
	site     *url.URL
	sessions *session.Registry
	stats    *stats.MountStats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. tree is the navigation
// fragment every page mounts.
func NewServer(tree string, sessions *session.Registry, log *slog.Logger, cfg config.Config) *Server {
	site, err := url.Parse(cfg.SiteURL)
	if err != nil {
		site = &url.URL{Scheme: "http", Host: "localhost:" + cfg.Port}
	}
	// Page paths are relative to the book root.
	if !strings.HasSuffix(site.Path, "/") {
		site.Path += "/"
	}
	s := &Server{
		tree:     tree,
		site:     site,
		sessions: sessions,
		stats:    stats.NewMountStats(time.Hour),
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/sidebar", s.handleSidebar)
		r.Post("/api/sidebar/click", s.handleClick)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// mount loads pagePath in a headless page and mounts the sidebar into it,
// using storage as the page's session storage.
func (s *Server) mount(pagePath, root string, storage session.Storage) (*dom.Page, sidebar.Result) {
	pageURL := s.site.ResolveReference(&url.URL{Path: strings.TrimLeft(pagePath, "/")})
	page := dom.NewPage(pageURL.String(), dom.Layout{
		RowHeight:      s.cfg.RowHeight,
		ViewportHeight: s.cfg.ViewportHeight,
	})

	w := sidebar.New(sidebar.Options{
		Tree:       s.tree,
		PathToRoot: root,
		Storage:    storage,
		IndexName:  s.cfg.IndexName,
		StorageKey: s.cfg.StorageKey,
		Log:        s.log,
	})

	start := time.Now()
	res := w.Mount(page)
	s.stats.Record(time.Since(start), res.Active != "", res.Restored)
	return page, res
}
