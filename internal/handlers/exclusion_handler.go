package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/common"
	"github.com/ternarybob/dropscout/internal/models"
	"github.com/ternarybob/dropscout/internal/storage/badger"
	"github.com/ternarybob/dropscout/internal/storage/postgres"
)

// ExclusionHandler serves the persistent exclusion rule surface (spec.md
// §6): GET/POST /exclusions, DELETE /exclusions/{id}.
type ExclusionHandler struct {
	store    *postgres.ExclusionStore
	cache    *badger.ExclusionCache
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewExclusionHandler builds an ExclusionHandler.
func NewExclusionHandler(store *postgres.ExclusionStore, cache *badger.ExclusionCache, logger arbor.ILogger) *ExclusionHandler {
	return &ExclusionHandler{store: store, cache: cache, validate: validator.New(), logger: logger}
}

type addExclusionRequest struct {
	RuleType string `json:"rule_type" validate:"required,oneof=country category supplier keyword"`
	Value    string `json:"value" validate:"required"`
	Reason   string `json:"reason"`
}

// List handles GET /exclusions.
func (h *ExclusionHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list exclusion rules")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rules})
}

// Add handles POST /exclusions. The in-memory cache is refreshed
// opportunistically; otherwise it converges within its TTL (spec.md §5).
func (h *ExclusionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addExclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := &models.ExclusionRule{
		ID:        common.NewExclusionRuleID(),
		Kind:      models.ExclusionKind(req.RuleType),
		Value:     req.Value,
		Reason:    req.Reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Insert(r.Context(), rule); err != nil {
		if errors.Is(err, postgres.ErrDuplicateRule) {
			writeError(w, http.StatusConflict, "rule already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add rule")
		return
	}

	h.refreshCache(r)
	writeJSON(w, http.StatusOK, rule)
}

// Delete handles DELETE /exclusions/{id}.
func (h *ExclusionHandler) Delete(w http.ResponseWriter, r *http.Request, ruleID string) {
	if err := h.store.Delete(r.Context(), ruleID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	h.refreshCache(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ExclusionHandler) refreshCache(r *http.Request) {
	rules, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to refresh exclusion cache after mutation")
		return
	}
	h.cache.Refresh(r.Context(), rules)
}
