// Package api exposes the goal service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sbenjam1n/goaltrack/internal/predictor"
	"github.com/sbenjam1n/goaltrack/internal/service"
	"github.com/sbenjam1n/goaltrack/internal/validator"
	"go.uber.org/zap"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

type ctxKey struct{}

// Handler serves the goal API.
type Handler struct {
	svc *service.Service
	log *zap.Logger
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(svc *service.Service, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, log: log.Named("api")}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(h.logRequests)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestSize(maxBodyBytes))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Get("/recommendations", h.Recommendations)
			r.Post("/ml/train", h.TrainModels)
			r.Get("/ml/insights", h.Insights)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetGoal)
				r.Patch("/", h.UpdateGoal)
				r.Delete("/", h.DeleteGoal)
				r.Post("/toggle_completion", h.ToggleCompletion)
				r.Post("/subtasks", h.AddSubtask)
				r.Get("/prediction", h.PredictGoal)
			})
		})

		r.Patch("/subtasks/{id}", h.UpdateSubtask)
		r.Delete("/subtasks/{id}", h.DeleteSubtask)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			writeError(w, r, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing "+UserHeader+" header", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func userID(r *http.Request) string {
	user, _ := r.Context().Value(ctxKey{}).(string)
	return user
}

// fail maps a service error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validator.Error
	var insufficient *predictor.ErrInsufficientData
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, ErrorCodeValidationFailed, verr.Result.Message, verr.Result.Details)
	case errors.As(err, &insufficient):
		writeError(w, r, http.StatusBadRequest, ErrorCodeInsufficientData, insufficient.Error(), nil)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrSubtaskNotFound):
		writeError(w, r, http.StatusNotFound, ErrorCodeNotFound, err.Error(), nil)
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, ErrorCodeInternalError, "internal error", nil)
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		h.log.Error("unable to write response stream", zap.Error(err))
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Warn("failed to decode json", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request payload", err.Error())
		return false
	}
	return true
}

// yearParam reads the optional ?year= filter.
func yearParam(w http.ResponseWriter, r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return nil, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorCodeBadRequest, "year must be an integer", raw)
		return nil, false
	}
	return &year, true
}

// Healthz is a liveness check.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	goals, err := h.svc.ListGoals(r.Context(), userID(r), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, goals)
}

func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if !h.decode(w, r, &in) {
		return
	}
	g, err := h.svc.CreateGoal(r.Context(), userID(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, g)
}

func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGoal(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, g)
}

func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var p service.GoalPatch
	if !h.decode(w, r, &p) {
		return
	}
	g, err := h.svc.UpdateGoal(r.Context(), userID(r), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, g)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGoal(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.ToggleCompletion(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, g)
}

func (h *Handler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	var in service.SubtaskInput
	if !h.decode(w, r, &in) {
		return
	}
	st, err := h.svc.AddSubtask(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, st)
}

func (h *Handler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	var p service.SubtaskPatch
	if !h.decode(w, r, &p) {
		return
	}
	st, err := h.svc.UpdateSubtask(r.Context(), userID(r), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, st)
}

func (h *Handler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSubtask(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Recommendations(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

func (h *Handler) TrainModels(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.TrainModels(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, report)
}

func (h *Handler) PredictGoal(w http.ResponseWriter, r *http.Request) {
	pred, err := h.svc.PredictGoal(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, pred)
}

func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	ins, err := h.svc.Insights(r.Context(), userID(r), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, ins)
}
