package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appreports "github.com/bryanwahyu/labellens/internal/application/reports"
	domain "github.com/bryanwahyu/labellens/internal/domain/reports"
	"github.com/bryanwahyu/labellens/internal/domain/uploads"
	"github.com/bryanwahyu/labellens/internal/middleware"
)

// Router exposes the report service over HTTP
type Router struct {
	svc       *appreports.Service
	maxUpload int64
}

func NewRouter(svc *appreports.Service, health http.HandlerFunc, maxUploadBytes int64) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}
	r := &Router{svc: svc, maxUpload: maxUploadBytes}
	mux := chi.NewRouter()

	if health == nil {
		health = middleware.LivenessHandler
	}
	mux.Get("/health", health)
	mux.Get("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/reports/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/reports", r.wrap(r.handleList))
		rt.Get("/reports/{id}", r.wrap(r.handleGet))
		rt.Get("/reports/{id}/preview", r.wrap(r.handlePreview))
		rt.Delete("/reports/{id}", r.wrap(r.handleDelete))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Get("/failures", r.wrap(r.handleFailures))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks validation failures so wrap maps them to 400.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		var te *domain.TransportError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "report not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrNoFileSelected):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &br):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, uploads.ErrAnalysisInFlight):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.As(err, &te), errors.Is(err, domain.ErrMalformedResponse):
			http.Error(w, err.Error(), http.StatusBadGateway)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/reports/analyze, multipart body with one "file" field.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		return badRequest{err}
	}

	up := &domain.Upload{}
	file, hdr, err := req.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// the pipeline rejects empty uploads without a network call
	case err != nil:
		return badRequest{err}
	default:
		defer file.Close()
		if verr := middleware.ValidateUpload(hdr.Filename, hdr.Header.Get("Content-Type"), hdr.Size, r.maxUpload); verr != nil {
			return badRequest{verr}
		}
		content, rerr := io.ReadAll(file)
		if rerr != nil {
			return badRequest{rerr}
		}
		up = &domain.Upload{
			Filename:    middleware.SanitizeFilename(hdr.Filename),
			ContentType: hdr.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	report, err := r.svc.AnalyzeAndStore(req.Context(), up)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(report)
}

// GET /v1/reports
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.svc.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.StoredReport{}
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/reports/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	report, err := r.svc.Get(req.Context(), domain.ReportID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(report)
}

// GET /v1/reports/{id}/preview
func (r *Router) handlePreview(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	preview, err := r.svc.Preview(req.Context(), domain.ReportID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(preview)
}

// DELETE /v1/reports/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := r.svc.Delete(req.Context(), domain.ReportID(id)); err != nil {
		return err
	}
	middleware.IncrementReportsDeleted()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/failures?limit=n, recent analysis failures, newest first.
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.RecentFailures(req.Context(), limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	metrics, err := r.svc.Dashboard(req.Context())
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(metrics)
}
