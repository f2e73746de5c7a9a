package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/events"
	"github.com/efreitasn/nftmarket/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[domain.EventType]bool{
	domain.EventTokenTransferred: true,
	domain.EventTokenApproved:    true,
	domain.EventTradeExecuted:    true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	URL    string
	Events []string
}

// WebhookService handles webhook CRUD and delivers committed events to
// the accounts they concern.
type WebhookService struct {
	store    *store.WebhookStore
	client   *http.Client
	decimals int32
	logger   *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	webhookTimeout time.Duration,
	decimals int32,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		decimals: decimals,
		logger:   logger,
	}
}

// Upsert validates the request and creates or updates the caller's
// subscriptions. Returns the resulting webhooks, whether any new
// subscriptions were created, and any error.
func (s *WebhookService) Upsert(caller domain.AccountID, req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[domain.EventType]bool, len(req.Events))
	deduped := make([]domain.EventType, 0, len(req.Events))
	for _, name := range req.Events {
		event := domain.EventType(name)
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + name + ". Must be one of: token.transferred, token.approved, trade.executed",
			}
		}
		if !seen[event] {
			seen[event] = true
			deduped = append(deduped, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(deduped))

	for _, event := range deduped {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			Account:   caller,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		stored, created := s.store.Upsert(w)
		if created {
			anyCreated = true
		}
		webhooks = append(webhooks, stored)
	}

	return webhooks, anyCreated, nil
}

// List returns the caller's webhook subscriptions.
func (s *WebhookService) List(caller domain.AccountID) []*domain.Webhook {
	return s.store.ListByAccount(caller)
}

// Delete removes one of the caller's subscriptions. Subscriptions of other
// accounts are reported as not found.
func (s *WebhookService) Delete(caller domain.AccountID, webhookID string) error {
	w, err := s.store.Get(webhookID)
	if err != nil {
		return err
	}
	if w.Account != caller {
		return domain.ErrWebhookNotFound
	}
	return s.store.Delete(webhookID)
}

// Publish delivers ev to every party of the event subscribed to its type.
// Delivery is fire-and-forget.
func (s *WebhookService) Publish(_ context.Context, ev domain.Event) {
	subscribers := s.store.Subscribers(ev.Type, ev.Parties())
	if len(subscribers) == 0 {
		return
	}
	body, err := events.Encode(ev, s.decimals)
	if err != nil {
		s.logger.Error("webhook: encoding event", slog.String("error", err.Error()))
		return
	}
	for _, wh := range subscribers {
		go s.deliver(wh, ev.Type, body)
	}
}

// deliver sends the webhook payload via HTTP POST with the required headers.
func (s *WebhookService) deliver(wh *domain.Webhook, event domain.EventType, body []byte) {
	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", string(event))

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("webhook: delivery failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("error", err.Error()),
		)
		return
	}
	resp.Body.Close()
}
