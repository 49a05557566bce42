package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sw33tLie/spoilerguard/pkg/registry"
	"github.com/sw33tLie/spoilerguard/pkg/storage"
	"github.com/sw33tLie/spoilerguard/pkg/warning"
)

// Message actions understood by POST /api/message.
const (
	ActionCheckSpoilers = "checkSpoilers"
	ActionBlockPage     = "blockPage"
)

// ExportFileName is the suggested name of a downloaded settings export.
const ExportFileName = "spoilerguard-settings.json"

const maxImportSize = 5 << 20

type Message struct {
	Action   string `json:"action"`
	URL      string `json:"url"`
	ShowName string `json:"showName"`
}

type BlockResponse struct {
	RedirectTo string `json:"redirectTo"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	switch msg.Action {
	case ActionCheckSpoilers:
		writeJSON(w, http.StatusOK, s.Detector.CheckURL(r.Context(), msg.URL))

	case ActionBlockPage:
		if msg.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}
		s.Log.Infof("Blocked %s on request: possible spoiler for %q", msg.URL, msg.ShowName)
		if s.Interceptions != nil {
			_, err := s.Interceptions.LogInterception(r.Context(), storage.Interception{
				Source:   storage.SourceMessage,
				URL:      msg.URL,
				ShowName: msg.ShowName,
			})
			if err != nil {
				s.Log.Warnf("Could not record interception of %s: %v", msg.URL, err)
			}
		}
		writeJSON(w, http.StatusOK, BlockResponse{RedirectTo: s.BlockedURL(msg.URL, msg.ShowName)})

	default:
		http.Error(w, "unknown action: "+msg.Action, http.StatusBadRequest)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.Registry.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	st, err := s.Registry.Load(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Shows)
}

type AddShowRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddShow(w http.ResponseWriter, r *http.Request) {
	var req AddShowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	show, err := s.Registry.AddShow(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, show)
}

func (s *Server) handleRemoveShow(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	show, err := s.Registry.RemoveShow(r.Context(), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

// SetKeywordsRequest carries either a keyword array or the comma-separated
// form typed into the options page.
type SetKeywordsRequest struct {
	Keywords json.RawMessage `json:"keywords"`
}

func (s *Server) handleSetKeywords(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req SetKeywordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var keywords []string
	var list string
	switch {
	case json.Unmarshal(req.Keywords, &keywords) == nil:
	case json.Unmarshal(req.Keywords, &list) == nil:
		keywords = registry.ParseKeywordList(list)
	default:
		http.Error(w, "keywords must be an array or a comma-separated string", http.StatusBadRequest)
		return
	}

	show, err := s.Registry.SetKeywordsAt(r.Context(), index, keywords)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleSetEnabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, "enabled must be a boolean", http.StatusBadRequest)
		return
	}
	if err := s.Registry.SetEnabled(r.Context(), *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleSetBlockingMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlockingMode registry.BlockingMode `json:"blockingMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Registry.SetBlockingMode(r.Context(), req.BlockingMode); err != nil {
		writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleSetSensitivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sensitivity int `json:"sensitivity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Registry.SetSensitivity(r.Context(), req.Sensitivity); err != nil {
		writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.Registry.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFileName+`"`)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Registry.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.Registry.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleInterceptions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := s.Interceptions.ListRecentInterceptions(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []storage.Interception{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Interceptions.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []storage.ShowStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBlocked(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := warning.BlockedPage(q.Get("url"), q.Get("show")).Render(w); err != nil {
		s.Log.Errorf("Could not render warning page: %v", err)
	}
}

// handleContinue lets the next navigation to url through the proxy and
// sends the browser there. Only the warning page, or the user typing the
// address, may grant a bypass.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		s.Log.Warnf("Refused bypass request from %s", r.Header.Get("Referer"))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	target := r.URL.Query().Get("url")
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		http.Error(w, "invalid url", http.StatusBadRequest)
		return
	}
	if s.Bypass != nil {
		s.Bypass.Grant(target)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// sameOrigin reports whether r was started from this service or by the user.
// Sec-Fetch-Site is preferred; browsers without it are checked by Referer.
// A request carrying neither header is a non-browser client and is allowed.
func sameOrigin(r *http.Request) bool {
	switch site := r.Header.Get("Sec-Fetch-Site"); site {
	case "same-origin", "none":
		return true
	case "":
	default:
		return false
	}
	ref := r.Header.Get("Referer")
	if ref == "" {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps registry errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, registry.ErrEmptyName),
		errors.Is(err, registry.ErrInvalidBlockingMode),
		errors.Is(err, registry.ErrInvalidSensitivity),
		errors.Is(err, registry.ErrInvalidImport):
		status = http.StatusBadRequest
	case errors.Is(err, registry.ErrDuplicateShow):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrShowNotFound):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
