package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/readrack/magazine-service/internal/model"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// GetSubscriptions handles GET /issue-service/getSubscriptions.
func (h *Handler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.ParseInt(q.Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)

	var userID *int64
	if v := q.Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "userId must be an integer.")
			return
		}
		userID = &id
	}

	subs, total, err := h.subs.List(r.Context(), page, limit, userID)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Successful fetch for subscriptions with query params.",
		"subscriptions": subs,
		"total":         total,
	})
}

// CreateSubscription handles POST /issue-service/createSubscription.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req model.SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log.Warnf("invalid create body: %v", err)
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.val.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.subs.Create(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Subscription created with success.",
		"subscription": sub,
	})
}

// UpdateSubscription handles PUT /issue-service/updateSubscription (renew).
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req model.SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.val.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.subs.Renew(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Subscription renewed with success.",
		"subscription": sub,
	})
}
