package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"daily-tips/internal/models"
)

const (
	maxTipTitle     = 255
	maxTipBody      = 5000
	maxTipBodyBytes = 64 << 10
)

type tipList struct {
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Items []models.Tip `json:"items"`
}

type tipRequest struct {
	TopicID     int64   `json:"topic_id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	SourceURL   *string `json:"source_url"`
	Fingerprint string  `json:"fingerprint"`
}

// tip validates the request and converts it to a model.
func (req tipRequest) tip() (*models.Tip, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	switch {
	case req.TopicID <= 0:
		return nil, errors.New("topic_id is required")
	case title == "" || utf8.RuneCountInString(title) > maxTipTitle:
		return nil, errors.New("title must be between 1 and 255 characters")
	case body == "" || utf8.RuneCountInString(body) > maxTipBody:
		return nil, errors.New("body must be between 1 and 5000 characters")
	}

	tip := &models.Tip{TopicID: req.TopicID, Title: title, Body: body, Fingerprint: strings.TrimSpace(req.Fingerprint)}
	if req.SourceURL != nil && strings.TrimSpace(*req.SourceURL) != "" {
		raw := strings.TrimSpace(*req.SourceURL)
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, errors.New("source_url must be an http or https URL")
		}
		tip.SourceURL = &raw
	}
	return tip, nil
}

func (h *Handlers) ListTips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size, ok := pageParams(w, q)
	if !ok {
		return
	}
	topicID, ok := topicParam(w, q)
	if !ok {
		return
	}

	items, total, err := h.store.ListTips(r.Context(), models.TipQuery{
		TopicID: topicID,
		Search:  q.Get("q"),
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		h.internalError(w, "list tips", err)
		return
	}
	if items == nil {
		items = []models.Tip{}
	}
	writeJSON(w, http.StatusOK, tipList{Total: total, Page: page, Size: size, Items: items})
}

func (h *Handlers) GetTip(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tip id")
		return
	}

	tip, err := h.store.GetTip(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tip not found")
		return
	}
	if err != nil {
		h.internalError(w, "get tip", err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// CreateTip is admin only. A tip whose fingerprint already exists is a 409;
// an unknown topic is a 400.
func (h *Handlers) CreateTip(w http.ResponseWriter, r *http.Request) {
	var req tipRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTipBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tip, err := req.tip()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.store.CreateTip(r.Context(), tip)
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusBadRequest, "topic not found")
	case errors.Is(err, models.ErrDuplicate):
		writeError(w, http.StatusConflict, "duplicated tip")
	case err != nil:
		h.internalError(w, "create tip", err)
	default:
		writeJSON(w, http.StatusCreated, tip)
	}
}
