package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"daily-tips/internal/delivery"
	"daily-tips/internal/models"
	"daily-tips/internal/tips"
)

func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	perTopic := 1
	if v := q.Get("per_topic"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.maxPerTopic {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("per_topic must be an integer between 1 and %d", h.maxPerTopic))
			return
		}
		perTopic = n
	}

	order, ok := models.ParseTipOrder(q.Get("strategy"))
	if !ok {
		writeError(w, http.StatusBadRequest, "strategy must be latest or random")
		return
	}

	res, err := h.tips.Today(r.Context(), tips.TodayRequest{
		User:     *user,
		Timezone: q.Get("tz"),
		PerTopic: perTopic,
		Order:    order,
		Channel:  models.ChannelApp,
	})
	if errors.Is(err, tips.ErrInvalidTimezone) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, "today", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	page, size, ok := pageParams(w, q)
	if !ok {
		return
	}
	topicID, ok := topicParam(w, q)
	if !ok {
		return
	}

	res, err := h.tips.History(r.Context(), user.ID, page, size, topicID)
	if err != nil {
		h.internalError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deliveryID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid delivery id")
		return
	}

	item, err := h.tips.MarkRead(r.Context(), user.ID, deliveryID)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		h.internalError(w, "mark read", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) GetRemaining(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := h.tips.Remaining(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, "remaining", err)
		return
	}
	if out == nil {
		out = []models.TopicRemaining{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": user.ID, "topics": out})
}

// pageParams reads page and size, writing a 400 when either is out of range.
func pageParams(w http.ResponseWriter, q url.Values) (int, int, bool) {
	page, err := intParam(q.Get("page"), 1, 1, delivery.MaxPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("page must be an integer between 1 and %d", delivery.MaxPage))
		return 0, 0, false
	}
	size, err := intParam(q.Get("size"), delivery.DefaultPageSize, 1, delivery.MaxPageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be an integer between 1 and %d", delivery.MaxPageSize))
		return 0, 0, false
	}
	return page, size, true
}

func topicParam(w http.ResponseWriter, q url.Values) (*int64, bool) {
	v := q.Get("topic_id")
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "topic_id must be an integer")
		return nil, false
	}
	return &id, true
}

// intParam parses an optional integer query value. hi <= 0 means no upper
// bound.
func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < lo || (hi > 0 && n > hi) {
		return 0, strconv.ErrRange
	}
	return n, nil
}
