package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/nftmarket/internal/service"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware. ws serves the live event stream and
// may be nil.
func NewRouter(
	accountSvc *service.AccountService,
	tokenSvc *service.TokenService,
	marketSvc *service.MarketService,
	webhookSvc *service.WebhookService,
	ws http.HandlerFunc,
	decimals int32,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	accountH := NewAccountHandler(accountSvc, decimals)
	tokenH := NewTokenHandler(tokenSvc, decimals)
	marketH := NewMarketHandler(marketSvc, decimals)
	webhookH := NewWebhookHandler(webhookSvc)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/accounts", accountH.Register)
	r.Get("/accounts/{address}/balance", accountH.GetBalance)
	r.Get("/accounts/{address}/tokens", accountH.Tokens)

	r.Post("/tokens", tokenH.Mint)
	r.Get("/tokens", tokenH.Supply)
	r.Post("/operators", tokenH.SetOperator)
	r.Route("/tokens/{token_id}", func(r chi.Router) {
		r.Get("/", tokenH.Get)
		r.Delete("/", tokenH.Burn)
		r.Post("/transfer", tokenH.Transfer)
		r.Post("/approve", tokenH.Approve)
		r.Get("/allowance", tokenH.Allowance)

		r.Put("/ask", marketH.Ask)
		r.Delete("/ask", marketH.Cancel)
		r.Get("/price", marketH.Price)
		r.Post("/buy", marketH.Buy)
	})

	r.Get("/listings", marketH.Listings)
	r.Get("/trades", marketH.Trades)

	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	if ws != nil {
		r.Get("/ws", ws)
	}

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
