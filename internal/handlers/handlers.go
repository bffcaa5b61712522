package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/readrack/magazine-service/internal/service"
)

type Handler struct {
	issues  *service.IssueService
	listing *service.ListingService
	subs    *service.SubscriptionService
	log     *logrus.Logger
	val     *validator.Validate
}

func NewHandler(issues *service.IssueService, listing *service.ListingService, subs *service.SubscriptionService, log *logrus.Logger) *Handler {
	return &Handler{issues: issues, listing: listing, subs: subs, log: log, val: validator.New()}
}

// utilities

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, map[string]string{"message": msg})
}

// handleError maps caller mistakes to 400 with their message and hides
// everything else behind a generic implementation error.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var br service.BadRequest
	if errors.As(err, &br) {
		h.writeError(w, http.StatusBadRequest, br.Message)
		return
	}
	h.log.Errorf("request failed: %v", err)
	h.writeError(w, http.StatusInternalServerError, "implementation error")
}
