package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/affordmap/internal/canvas"
	"github.com/MeKo-Tech/affordmap/internal/composite"
	"github.com/MeKo-Tech/affordmap/internal/interaction"
	"github.com/MeKo-Tech/affordmap/internal/search"
)

type errorResponse struct {
	Error string `json:"error"`
}

func notFound(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 25 {
			limit = n
		}
	}
	candidates := s.index.Suggest(r.Context(), q, limit)
	if candidates == nil {
		candidates = []search.Candidate{}
	}
	render.JSON(w, r, map[string]interface{}{"candidates": candidates})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	res := s.index.Resolve(r.Context(), q)
	if res == nil {
		notFound(w, r, "not found, try again")
		return
	}
	render.JSON(w, r, map[string]string{
		"kind": res.Kind.String(),
		"zip":  res.Zip,
		"name": res.Name,
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")
	if !search.IsZip(zip) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "zip must be 5 digits"})
		return
	}
	result, err := s.scores.GetScore(r.Context(), zip)
	if err != nil {
		s.cfg.Logger.Warn("score fetch failed", "zip", zip, "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, errorResponse{Error: "scoring service unavailable"})
		return
	}
	render.JSON(w, r, result)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	zip := chi.URLParam(r, "zip")
	if !search.IsZip(zip) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "zip must be 5 digits"})
		return
	}
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 25 {
			n = v
		}
	}
	regions, err := s.scores.GetSimilarRegions(r.Context(), zip, n)
	if err != nil {
		s.cfg.Logger.Warn("similarity fetch failed", "zip", zip, "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, errorResponse{Error: "scoring service unavailable"})
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"zip":             zip,
		"similar_regions": regions,
	})
}

type compositeResponse struct {
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	ZipCodes    []string           `json:"zip_codes"`
	AreaWeights map[string]float64 `json:"area_weights"`
	Aggregate   *float64           `json:"aggregate"`
	Scores      map[string]float64 `json:"scores"`
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// The API renders headless: membership and weights come out the same
	// machinery the interactive map uses, just drawn onto a canvas that
	// discards the shapes.
	mapCtx := interaction.NewContext(nopCanvas{})
	controller := interaction.NewShapeController(mapCtx)
	renderer := composite.NewRenderer(mapCtx, s.loader, s.index, controller, s.cfg.Logger)

	view := renderer.Render(r.Context(), name)
	if view == nil {
		notFound(w, r, "not found, try again")
		return
	}
	defer view.Teardown()

	zips := view.Sorted()
	results := s.scores.GetScores(r.Context(), zips)
	scoreMap := make(map[string]float64, len(results))
	for zip, res := range results {
		scoreMap[zip] = res.Scores.Average
	}

	resp := compositeResponse{
		Name:        view.Name,
		Kind:        view.Kind.String(),
		ZipCodes:    zips,
		AreaWeights: view.AreaWeights(),
		Scores:      scoreMap,
	}
	if agg, ok := view.Aggregate(scoreMap); ok {
		resp.Aggregate = &agg
	}
	render.JSON(w, r, resp)
}

// nopCanvas satisfies canvas.Canvas for headless composite resolution.
type nopCanvas struct{}

func (nopCanvas) AddPolygon([]orb.Ring, canvas.Style) canvas.Shape { return nopShape{} }
func (nopCanvas) FitBounds(orb.Bound)                              {}

type nopShape struct{}

func (nopShape) SetStyle(canvas.Style)   {}
func (nopShape) On(canvas.Event, func()) {}
func (nopShape) Remove()                 {}
