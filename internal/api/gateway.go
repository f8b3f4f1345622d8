package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sdav1 "github.com/miradorstack/sda-engine/internal/grpc/sdav1"
	"github.com/miradorstack/sda-engine/internal/utils"
)

const maxBodyBytes = 1 << 20

// Gateway exposes the ApprovalEngine service over JSON/HTTP.
type Gateway struct {
	service sdav1.ApprovalEngineServer
	logger  *slog.Logger
	timeout time.Duration
}

// NewGateway constructs a REST gateway in front of service.
func NewGateway(service sdav1.ApprovalEngineServer, timeout time.Duration, logger *slog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{service: service, logger: utils.OrDefault(logger), timeout: timeout}
}

// Router returns the HTTP handler tree.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(g.timeout))

	r.Get("/healthz", g.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/routing", g.handleRouting)
		r.Post("/routing/reconcile", g.handleReconcile)
		r.Post("/predictions", g.handlePredict)
		r.Post("/evaluations", g.handleEvaluate)
		r.Get("/snapshot", g.handleSnapshot)
	})
	return r
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := g.service.HealthCheck(r.Context(), &sdav1.HealthRequest{})
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleRouting(w http.ResponseWriter, r *http.Request) {
	var req sdav1.RoutingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := g.service.ComputeRouting(r.Context(), &req)
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req sdav1.ReconcileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := g.service.ReconcileRouting(r.Context(), &req)
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req sdav1.PredictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := g.service.PredictTimeline(r.Context(), &req)
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req sdav1.EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := g.service.Evaluate(r.Context(), &req)
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (g *Gateway) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	resp, err := g.service.GetSnapshot(r.Context(), &sdav1.SnapshotRequest{})
	if err != nil {
		g.respondStatus(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (g *Gateway) respondStatus(w http.ResponseWriter, r *http.Request, err error) {
	st := status.Convert(err)
	code := httpStatusFromCode(st.Code())
	if code >= http.StatusInternalServerError {
		g.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	respondError(w, code, st.Message())
}

func httpStatusFromCode(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusUnprocessableEntity
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
