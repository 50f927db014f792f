package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"daily-tips/internal/models"
)

type subscriptionRequest struct {
	TopicID int64 `json:"topic_id"`
}

func (h *Handlers) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	subscriptions, err := h.store.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, "list subscriptions", err)
		return
	}
	if subscriptions == nil {
		subscriptions = []models.Subscription{}
	}
	writeJSON(w, http.StatusOK, subscriptions)
}

func (h *Handlers) PostSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TopicID <= 0 {
		writeError(w, http.StatusBadRequest, "topic_id is required")
		return
	}

	sub, err := h.store.Subscribe(r.Context(), user.ID, req.TopicID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "topic not found")
	case errors.Is(err, models.ErrDuplicate):
		writeError(w, http.StatusConflict, "already subscribed to this topic")
	case err != nil:
		h.internalError(w, "subscribe", err)
	default:
		writeJSON(w, http.StatusCreated, sub)
	}
}

func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	topicID, err := strconv.ParseInt(mux.Vars(r)["topic_id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topic id")
		return
	}

	err = h.store.Unsubscribe(r.Context(), user.ID, topicID)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		h.internalError(w, "unsubscribe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
