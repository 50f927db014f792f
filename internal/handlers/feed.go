package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"daily-tips/internal/feed"
	"daily-tips/internal/models"
)

const feedItemLimit = 50

func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	token, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	user, err := h.store.GetUserByRSSUUID(r.Context(), token.String())
	if errors.Is(err, models.ErrNotFound) || (err == nil && !user.IsActive) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to load feed owner", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items, _, err := h.store.DeliveryHistory(r.Context(), models.HistoryQuery{UserID: user.ID, Limit: feedItemLimit})
	if err != nil {
		h.log.Error("failed to load feed items", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateRSS(user, items, feed.BaseURL(h.baseURL, r))
	if err != nil {
		h.log.Error("failed to generate rss", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
