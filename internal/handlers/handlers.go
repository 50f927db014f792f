package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"daily-tips/internal/logger"
	"daily-tips/internal/middleware"
	"daily-tips/internal/models"
	"daily-tips/internal/tips"
)

// TipService is the part of tips.Service the API and the bot use.
type TipService interface {
	Today(ctx context.Context, req tips.TodayRequest) (*tips.TodayResult, error)
	History(ctx context.Context, userID int64, page, size int, topicID *int64) (*tips.HistoryPage, error)
	MarkRead(ctx context.Context, userID, deliveryID int64) (models.HistoryItem, error)
	Remaining(ctx context.Context, userID int64) ([]models.TopicRemaining, error)
}

// Store holds the catalog and account lookups that sit outside the core.
type Store interface {
	Ping(ctx context.Context) error
	ListActiveTopics(ctx context.Context) ([]models.Topic, error)
	ListSubscriptions(ctx context.Context, userID int64) ([]models.Subscription, error)
	Subscribe(ctx context.Context, userID, topicID int64) (*models.Subscription, error)
	Unsubscribe(ctx context.Context, userID, topicID int64) error
	GetUserByRSSUUID(ctx context.Context, rssUUID string) (*models.User, error)
	DeliveryHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryItem, int, error)
	ListTips(ctx context.Context, q models.TipQuery) ([]models.Tip, int, error)
	GetTip(ctx context.Context, id int64) (*models.Tip, error)
	CreateTip(ctx context.Context, tip *models.Tip) error
}

type Handlers struct {
	tips        TipService
	store       Store
	baseURL     string
	maxPerTopic int
	log         *logger.Logger
}

// New builds the handlers. maxPerTopic is the largest per_topic a client may
// ask for; the plan policy may still lower it.
func New(tipService TipService, store Store, baseURL string, maxPerTopic int, log *logger.Logger) *Handlers {
	return &Handlers{
		tips:        tipService,
		store:       store,
		baseURL:     baseURL,
		maxPerTopic: max(1, maxPerTopic),
		log:         log,
	}
}

// Register mounts every route. Routes under /me and /subscriptions, and tip
// creation, go through the given middlewares in order.
func (h *Handlers) Register(r *mux.Router, authenticated ...mux.MiddlewareFunc) {
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/topics", h.ListTopics).Methods(http.MethodGet)
	r.HandleFunc("/rss/{uuid}", h.GetRSSFeed).Methods(http.MethodGet)

	r.HandleFunc("/tips", h.ListTips).Methods(http.MethodGet)
	r.HandleFunc("/tips/{id:[0-9]+}", h.GetTip).Methods(http.MethodGet)
	var createTip http.Handler = middleware.RequireAdmin(http.HandlerFunc(h.CreateTip))
	for i := len(authenticated) - 1; i >= 0; i-- {
		createTip = authenticated[i](createTip)
	}
	r.Handle("/tips", createTip).Methods(http.MethodPost)

	me := r.PathPrefix("/me").Subrouter()
	me.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	me.Use(authenticated...)
	me.HandleFunc("/tips/today", h.GetToday).Methods(http.MethodGet)
	me.HandleFunc("/tips/history", h.GetHistory).Methods(http.MethodGet)
	me.HandleFunc("/tips/{id:[0-9]+}/read", h.MarkRead).Methods(http.MethodPatch)
	me.HandleFunc("/topics/remaining", h.GetRemaining).Methods(http.MethodGet)

	subs := r.PathPrefix("/subscriptions").Subrouter()
	subs.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	subs.Use(authenticated...)
	subs.HandleFunc("", h.GetSubscriptions).Methods(http.MethodGet)
	subs.HandleFunc("", h.PostSubscription).Methods(http.MethodPost)
	subs.HandleFunc("/{topic_id:[0-9]+}", h.DeleteSubscription).Methods(http.MethodDelete)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.store.ListActiveTopics(r.Context())
	if err != nil {
		h.internalError(w, "list topics", err)
		return
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

// currentUser returns the user set by the auth middleware. Routes are only
// mounted behind it, so a missing user means a wiring bug.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return user, ok
}

func (h *Handlers) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
