package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
)

// WebhookHandler handles HTTP requests for webhook endpoints.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// upsertWebhookRequest is the JSON request body for POST /webhooks.
type upsertWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type webhookResponse struct {
	WebhookID string `json:"webhook_id"`
	Account   string `json:"account"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// webhookListResponse is the JSON response for POST and GET /webhooks.
type webhookListResponse struct {
	Webhooks []webhookResponse `json:"webhooks"`
}

// Upsert handles POST /webhooks. Subscriptions belong to the caller.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	webhooks, anyCreated, err := h.webhookSvc.Upsert(caller, service.UpsertWebhookRequest{
		URL:    req.URL,
		Events: req.Events,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	status := http.StatusOK
	if anyCreated {
		status = http.StatusCreated
	}
	WriteJSON(w, status, webhookListResponse{Webhooks: buildWebhookResponses(webhooks)})
}

// List handles GET /webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, webhookListResponse{
		Webhooks: buildWebhookResponses(h.webhookSvc.List(caller)),
	})
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.webhookSvc.Delete(caller, chi.URLParam(r, "webhook_id")); err != nil {
		mapError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func buildWebhookResponses(webhooks []*domain.Webhook) []webhookResponse {
	result := make([]webhookResponse, len(webhooks))
	for i, wh := range webhooks {
		result[i] = webhookResponse{
			WebhookID: wh.WebhookID,
			Account:   wh.Account.Hex(),
			Event:     string(wh.Event),
			URL:       wh.URL,
			CreatedAt: wh.CreatedAt.UTC().Format(timeLayout),
			UpdatedAt: wh.UpdatedAt.UTC().Format(timeLayout),
		}
	}
	return result
}
