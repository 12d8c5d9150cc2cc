package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Auriora/activitywatch-mcp-sub002/internal/models"

	"go.uber.org/zap"
)

// CategoryRuleStore is the local category rule store
type CategoryRuleStore interface {
	Create(ctx context.Context, req *models.CreateCategoryRuleRequest) (*models.CategoryRule, error)
	GetByID(ctx context.Context, id string) (*models.CategoryRule, error)
	List(ctx context.Context) ([]models.CategoryRule, error)
	Update(ctx context.Context, id string, req *models.UpdateCategoryRuleRequest) (*models.CategoryRule, error)
	Delete(ctx context.Context, id string) error
}

type CategoryRuleHandler struct {
	store CategoryRuleStore
	// onChange runs after every successful mutation, e.g. to drop cached rules.
	onChange func()
	logger   *zap.Logger
}

func NewCategoryRuleHandler(store CategoryRuleStore, onChange func(), logger *zap.Logger) *CategoryRuleHandler {
	if onChange == nil {
		onChange = func() {}
	}
	return &CategoryRuleHandler{
		store:    store,
		onChange: onChange,
		logger:   logger,
	}
}

func (h *CategoryRuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CreateCategoryRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.store.Create(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.onChange()

	writeJSON(w, http.StatusCreated, rule)
}

func (h *CategoryRuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	rule, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

func (h *CategoryRuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rules, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, rules)
}

func (h *CategoryRuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var req models.UpdateCategoryRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rule, err := h.store.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.onChange()

	writeJSON(w, http.StatusOK, rule)
}

func (h *CategoryRuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.onChange()

	w.WriteHeader(http.StatusNoContent)
}
