package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/netpyoung/booknav/internal/session"
	"github.com/netpyoung/booknav/internal/sidebar"
)

// SessionCookie carries the client's session id.
const SessionCookie = "booknav_session"

type sidebarResponse struct {
	HTML       string `json:"html"`
	Active     string `json:"active"`
	Restored   bool   `json:"restored"`
	ScrollTop  int    `json:"scroll_top"`
	PathToRoot string `json:"path_to_root"`
}

type clickRequest struct {
	Path      string  `json:"path"`
	Root      *string `json:"root,omitempty"` // nil means PathToRoot(Path)
	Href      string  `json:"href"`
	ScrollTop int     `json:"scroll_top"`
}

// handleSidebar mounts the sidebar for ?path= and returns the rendered tree.
func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	pagePath := r.URL.Query().Get("path")
	if pagePath == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	root, ok := r.URL.Query()["root"]
	pathToRoot := sidebar.PathToRoot(pagePath)
	if ok {
		pathToRoot = root[0]
	}

	storage := s.sessionStorage(w, r)
	page, res := s.mount(pagePath, pathToRoot, storage)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sidebarResponse{
		HTML:       page.SidebarHTML(),
		Active:     res.Active,
		Restored:   res.Restored,
		ScrollTop:  res.ScrollTop,
		PathToRoot: pathToRoot,
	})
}

// handleClick replays a click in the sidebar of path so the widget stores
// the scroll offset for the next page load of this session.
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	// Loading the page consumes any pending offset, as a browser would.
	pathToRoot := sidebar.PathToRoot(req.Path)
	if req.Root != nil {
		pathToRoot = *req.Root
	}
	storage := s.sessionStorage(w, r)
	page, _ := s.mount(req.Path, pathToRoot, storage)

	target := page.Container().Get(0)
	if req.Href != "" {
		target = page.FindLink(req.Href)
		if target == nil {
			jsonError(w, "no sidebar link with href "+req.Href, http.StatusNotFound)
			return
		}
	}
	page.SetScrollTop(req.ScrollTop)
	page.Click(target)

	saved, _ := storage.Get(s.cfg.StorageKey)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"saved":      saved != "",
		"scroll_top": page.ScrollTop(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"sessions": s.sessions.Len(),
		"mounts":   s.stats.Snapshot(),
	})
}

// sessionStorage returns the caller's storage, issuing a cookie for new sessions.
func (s *Server) sessionStorage(w http.ResponseWriter, r *http.Request) session.Storage {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	used, storage := s.sessions.For(id)
	if used != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    used,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return storage
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
