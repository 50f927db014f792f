// Package tips is the entry point of the delivery core: it combines plan
// policy, selection and registration into the operations served by the API,
// the bot and the worker.
package tips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-tips/internal/config"
	"daily-tips/internal/delivery"
	"daily-tips/internal/logger"
	"daily-tips/internal/models"
	"daily-tips/internal/selector"
)

var ErrInvalidTimezone = errors.New("invalid timezone")

type Store interface {
	delivery.BatchStore
	UndeliveredTips(ctx context.Context, userID, topicID int64, order models.TipOrder, limit int) ([]models.Tip, error)
	CountUndelivered(ctx context.Context, userID int64) ([]models.TopicRemaining, error)
	TipsDeliveredWithin(ctx context.Context, userID int64, from, to time.Time) ([]models.Tip, error)
}

type Options struct {
	Limits       selector.PlanLimits
	Location     *time.Location
	DeliveryHour int
}

// OptionsFromConfig maps the plan and daily settings onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Limits: selector.PlanLimits{
			FreeTopicLimit: cfg.Plan.FreeTopicLimit,
			FreePerTopic:   cfg.Plan.FreePerTopic,
			MaxPerTopic:    cfg.Plan.MaxPerTopic,
		},
		Location:     cfg.Location(),
		DeliveryHour: cfg.Daily.DeliveryHour,
	}
}

type Service struct {
	store     Store
	policy    *selector.Policy
	selector  *selector.Selector
	registrar *delivery.Registrar
	history   *delivery.History
	batch     *delivery.Batch
	loc       *time.Location
	now       func() time.Time
	log       *logger.Logger
}

func NewService(store Store, opts Options, log *logger.Logger) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:    store,
		policy:   selector.NewPolicy(store, opts.Limits),
		selector: selector.New(store),
		history:  delivery.NewHistory(store, log.With("component", "history")),
		batch:    delivery.NewBatch(store, loc, opts.DeliveryHour, log.With("component", "batch")),
		loc:      loc,
		now:      time.Now,
		log:      log,
	}
	s.registrar = delivery.NewRegistrar(store, log.With("component", "registrar")).
		WithClock(func() time.Time { return s.now() })
	return s
}

// TodayRequest describes a "today" call. Empty Timezone means the service
// location, empty Channel means app.
type TodayRequest struct {
	User     models.User
	Timezone string
	PerTopic int
	Order    models.TipOrder
	Channel  string
}

type TodayResult struct {
	Date              string             `json:"date"`
	UserID            int64              `json:"user_id"`
	Count             int                `json:"count"`
	DeliveriesCreated int                `json:"deliveries_created"`
	Data              []models.TopicTips `json:"data"`
}

// Today returns the user's bundle for the current day in the requested
// timezone. Tips already delivered that day are served again first; topics
// still short are filled by the selector and the new picks are recorded, so
// repeating the call on the same day creates no further deliveries.
func (s *Service) Today(ctx context.Context, req TodayRequest) (*TodayResult, error) {
	loc := s.loc
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, req.Timezone)
		}
		loc = l
	}
	day := s.now().In(loc)
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)

	topics, perTopic, err := s.policy.Apply(ctx, req.User, req.PerTopic)
	if err != nil {
		return nil, err
	}

	servedTips, err := s.store.TipsDeliveredWithin(ctx, req.User.ID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load today's deliveries: %w", err)
	}
	served := make(map[int64][]models.Tip)
	for _, tip := range servedTips {
		served[tip.TopicID] = append(served[tip.TopicID], tip)
	}

	var short []models.Topic
	for _, topic := range topics {
		if len(served[topic.ID]) < perTopic {
			short = append(short, topic)
		}
	}
	selected, err := s.selector.SelectBundle(ctx, req.User.ID, short, perTopic, req.Order, day)
	if err != nil {
		return nil, err
	}
	fresh := make(map[int64][]models.Tip, len(selected))
	for _, tt := range selected {
		fresh[tt.Topic.ID] = tt.Tips
	}

	bundle := make([]models.TopicTips, 0, len(topics))
	var toRegister []models.Tip
	count := 0
	for _, topic := range topics {
		picks, added := mergePicks(served[topic.ID], fresh[topic.ID], perTopic)
		if len(picks) == 0 {
			continue
		}
		bundle = append(bundle, models.TopicTips{Topic: topic, Tips: picks})
		toRegister = append(toRegister, added...)
		count += len(picks)
	}

	channel := req.Channel
	if channel == "" {
		channel = models.ChannelApp
	}
	created, err := s.registrar.RegisterIfMissing(ctx, req.User.ID, toRegister, channel, models.StatusSent)
	if err != nil {
		return nil, err
	}

	return &TodayResult{
		Date:              start.Format("2006-01-02"),
		UserID:            req.User.ID,
		Count:             count,
		DeliveriesCreated: created,
		Data:              bundle,
	}, nil
}

// mergePicks keeps the tips served earlier today and tops them up with fresh
// picks up to perTopic. It also returns the fresh tips that made the cut.
func mergePicks(served, fresh []models.Tip, perTopic int) ([]models.Tip, []models.Tip) {
	if len(served) > perTopic {
		served = served[:perTopic]
	}
	picks := append([]models.Tip(nil), served...)
	seen := make(map[int64]struct{}, len(served))
	for _, tip := range served {
		seen[tip.ID] = struct{}{}
	}

	var added []models.Tip
	for _, tip := range fresh {
		if len(picks) >= perTopic {
			break
		}
		if _, ok := seen[tip.ID]; ok {
			continue
		}
		seen[tip.ID] = struct{}{}
		picks = append(picks, tip)
		added = append(added, tip)
	}
	return picks, added
}

type HistoryPage struct {
	UserID int64                `json:"user_id"`
	Page   int                  `json:"page"`
	Size   int                  `json:"size"`
	Total  int                  `json:"total"`
	Items  []models.HistoryItem `json:"items"`
}

func (s *Service) History(ctx context.Context, userID int64, page, size int, topicID *int64) (*HistoryPage, error) {
	page, size = delivery.NormalizePage(page, size)
	items, total, err := s.history.List(ctx, userID, page, size, topicID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return &HistoryPage{UserID: userID, Page: page, Size: size, Total: total, Items: items}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, deliveryID int64) (models.HistoryItem, error) {
	return s.history.MarkRead(ctx, userID, deliveryID)
}

// RunDailyBatch runs the batch for the calendar day of day.
func (s *Service) RunDailyBatch(ctx context.Context, day time.Time) (int, error) {
	return s.batch.RunForAllUsers(ctx, day)
}

// Remaining counts undelivered tips per subscribed topic.
func (s *Service) Remaining(ctx context.Context, userID int64) ([]models.TopicRemaining, error) {
	out, err := s.store.CountUndelivered(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count remaining: %w", err)
	}
	return out, nil
}

// Location is the default location of the service.
func (s *Service) Location() *time.Location {
	return s.loc
}
