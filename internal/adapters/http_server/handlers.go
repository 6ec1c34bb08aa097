package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"localspot/internal/app"
	"localspot/internal/domain"
)

// Handlers exposes the read side of the catalog. Review submission stays
// with its collaborator service; it is not mounted here.
type Handlers struct {
	Catalog *app.CatalogService
	// Defaults applied when a request does not pin its own geography.
	DefaultQuery app.CatalogQuery
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/businesses", h.listBusinesses)
	s.mux.Get("/v1/businesses/{id}", h.getBusiness)
	s.mux.Get("/v1/recommendations", h.recommendations)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeCatalogErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Sources Unavailable", "no listing source reachable; retry later")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// query parsing: geography defaults come from config, everything else from
// the request.
func (h *Handlers) parseQuery(r *http.Request) app.CatalogQuery {
	q := h.DefaultQuery
	vals := r.URL.Query()
	if v, err := strconv.ParseFloat(vals.Get("lat"), 64); err == nil {
		q.Lat = v
	}
	if v, err := strconv.ParseFloat(vals.Get("lon"), 64); err == nil {
		q.Lon = v
	}
	if v, err := strconv.Atoi(vals.Get("radius")); err == nil && v > 0 {
		q.RadiusM = v
	}
	q.Search = strings.TrimSpace(vals.Get("q"))
	switch vals.Get("category") {
	case "Food":
		q.Category = domain.CategoryFood
	case "Retail":
		q.Category = domain.CategoryRetail
	case "Services":
		q.Category = domain.CategoryServices
	}
	q.Sort = vals.Get("sort")
	return q
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	q := h.parseQuery(r)
	out, err := h.Catalog.Catalog(r.Context(), q)
	if err != nil {
		writeCatalogErr(w, err)
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id is required")
		return
	}
	b, err := h.Catalog.GetBusiness(r.Context(), h.parseQuery(r), id)
	if err != nil {
		writeCatalogErr(w, err)
		return
	}
	writeJSON(w, r, b)
}

func (h *Handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if user == nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "recommendations require an identified user")
		return
	}

	vals := r.URL.Query()
	var favorites []string
	if fv := strings.TrimSpace(vals.Get("favorites")); fv != "" {
		favorites = strings.Split(fv, ",")
	}
	var preferred []domain.Category
	for _, p := range strings.Split(vals.Get("prefer"), ",") {
		switch strings.TrimSpace(p) {
		case "Food":
			preferred = append(preferred, domain.CategoryFood)
		case "Retail":
			preferred = append(preferred, domain.CategoryRetail)
		case "Services":
			preferred = append(preferred, domain.CategoryServices)
		}
	}
	topN := 0
	if v, err := strconv.Atoi(vals.Get("n")); err == nil && v > 0 && v <= 20 {
		topN = v
	}

	out, err := h.Catalog.Recommendations(r.Context(), h.parseQuery(r), favorites, preferred, topN)
	if err != nil {
		writeCatalogErr(w, err)
		return
	}
	writeJSON(w, r, out)
}
