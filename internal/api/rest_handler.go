package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"wealth_manager/internal/domain"
	"wealth_manager/internal/processor"
	"wealth_manager/internal/store"
	"wealth_manager/pkg/validator"
)

// FinancialStore is the part of *store.FinancialStore the API drives.
type FinancialStore interface {
	Snapshot() *domain.FinancialData
	Thresholds() processor.Thresholds

	AddIncome(ctx context.Context, in domain.IncomeInput) domain.Income
	UpdateIncome(ctx context.Context, id string, in domain.IncomeInput)
	DeleteIncome(ctx context.Context, id string)
	AddAsset(ctx context.Context, in domain.AssetInput) domain.Asset
	UpdateAsset(ctx context.Context, id string, in domain.AssetInput)
	DeleteAsset(ctx context.Context, id string)
	AddLiability(ctx context.Context, in domain.LiabilityInput) domain.Liability
	UpdateLiability(ctx context.Context, id string, in domain.LiabilityInput)
	DeleteLiability(ctx context.Context, id string)
	AddCreditCard(ctx context.Context, in domain.CreditCardInput) domain.CreditCard
	UpdateCreditCard(ctx context.Context, id string, in domain.CreditCardInput)
	DeleteCreditCard(ctx context.Context, id string)
	UpdateRecommendationStatus(ctx context.Context, id string, status domain.RecommendationStatus) error
}

type APIHandler struct {
	store          FinancialStore
	validator      *validator.EntityValidator
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(store FinancialStore, validator *validator.EntityValidator, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		store:          store,
		validator:      validator,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type SummaryResponse struct {
	processor.Summary
	Warnings []string `json:"warnings,omitempty"`
}

type UpdateStatusRequest struct {
	Status domain.RecommendationStatus `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.store.Snapshot(), http.StatusOK)
}

func (h *APIHandler) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := processor.Summarize(h.store.Snapshot(), h.store.Thresholds())

	response := SummaryResponse{Summary: summary}
	if err != nil {
		h.logger.Warn("Summary incomplete", slog.String("error", err.Error()))
		response.Warnings = []string{err.Error()}
	}
	h.sendJSON(w, response, http.StatusOK)
}

// ListRecommendationsHandler returns recommendations, optionally filtered
// by ?status=.
func (h *APIHandler) ListRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	recs := h.store.Snapshot().Recommendations

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.RecommendationStatus(raw)
		if err := h.validator.ValidateStatus(status); err != nil {
			h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
			return
		}
		filtered := make([]domain.Recommendation, 0, len(recs))
		for _, rec := range recs {
			if rec.Status == status {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}

	h.sendJSON(w, recs, http.StatusOK)
}

func (h *APIHandler) UpdateRecommendationStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if err := h.validator.ValidateStatus(req.Status); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	err := h.store.UpdateRecommendationStatus(ctx, r.PathValue("id"), req.Status)
	switch {
	case errors.Is(err, store.ErrInvalidTransition):
		h.sendError(w, err.Error(), http.StatusConflict, "INVALID_TRANSITION")
		return
	case errors.Is(err, store.ErrInvalidStatus):
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	case err != nil:
		h.sendError(w, "Failed to update recommendation", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// create decodes and validates a body, then hands it to add.
func create[In, Out any](h *APIHandler, validate func(In) error, add func(context.Context, In) Out) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(h, w, r, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		h.sendJSON(w, add(ctx, in), http.StatusCreated)
	}
}

// update replaces the record at {id}. An unknown id is not an error.
func update[In any](h *APIHandler, validate func(In) error, apply func(context.Context, string, In)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeInput(h, w, r, validate)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		apply(ctx, r.PathValue("id"), in)
		w.WriteHeader(http.StatusNoContent)
	}
}

func remove(h *APIHandler, del func(context.Context, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		del(ctx, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeInput[In any](h *APIHandler, w http.ResponseWriter, r *http.Request, validate func(In) error) (In, bool) {
	var in In
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return in, false
	}
	if err := validate(in); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return in, false
	}
	return in, true
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
	mux.HandleFunc("GET /api/v1/snapshot", h.GetSnapshotHandler)
	mux.HandleFunc("GET /api/v1/summary", h.GetSummaryHandler)

	mux.HandleFunc("POST /api/v1/income", create(h, h.validator.ValidateIncome, h.store.AddIncome))
	mux.HandleFunc("PUT /api/v1/income/{id}", update(h, h.validator.ValidateIncome, h.store.UpdateIncome))
	mux.HandleFunc("DELETE /api/v1/income/{id}", remove(h, h.store.DeleteIncome))

	mux.HandleFunc("POST /api/v1/assets", create(h, h.validator.ValidateAsset, h.store.AddAsset))
	mux.HandleFunc("PUT /api/v1/assets/{id}", update(h, h.validator.ValidateAsset, h.store.UpdateAsset))
	mux.HandleFunc("DELETE /api/v1/assets/{id}", remove(h, h.store.DeleteAsset))

	mux.HandleFunc("POST /api/v1/liabilities", create(h, h.validator.ValidateLiability, h.store.AddLiability))
	mux.HandleFunc("PUT /api/v1/liabilities/{id}", update(h, h.validator.ValidateLiability, h.store.UpdateLiability))
	mux.HandleFunc("DELETE /api/v1/liabilities/{id}", remove(h, h.store.DeleteLiability))

	mux.HandleFunc("POST /api/v1/credit-cards", create(h, h.validator.ValidateCreditCard, h.store.AddCreditCard))
	mux.HandleFunc("PUT /api/v1/credit-cards/{id}", update(h, h.validator.ValidateCreditCard, h.store.UpdateCreditCard))
	mux.HandleFunc("DELETE /api/v1/credit-cards/{id}", remove(h, h.store.DeleteCreditCard))

	mux.HandleFunc("GET /api/v1/recommendations", h.ListRecommendationsHandler)
	mux.HandleFunc("PATCH /api/v1/recommendations/{id}", h.UpdateRecommendationStatusHandler)
}
