package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

func newTestWebhook(id string, account domain.AccountID, event domain.EventType, url string) *domain.Webhook {
	now := time.Now()
	return &domain.Webhook{
		WebhookID: id,
		Account:   account,
		Event:     event,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWebhookStore_Upsert(t *testing.T) {
	tests := []struct {
		name        string
		second      *domain.Webhook
		wantCreated bool
		wantID      string
		wantURL     string
	}{
		{
			name:        "other event is a new subscription",
			second:      newTestWebhook("wh-2", testAccount(1), domain.EventTokenTransferred, "https://example.com/a"),
			wantCreated: true,
			wantID:      "wh-2",
			wantURL:     "https://example.com/a",
		},
		{
			name:        "other account is a new subscription",
			second:      newTestWebhook("wh-2", testAccount(2), domain.EventTradeExecuted, "https://example.com/a"),
			wantCreated: true,
			wantID:      "wh-2",
			wantURL:     "https://example.com/a",
		},
		{
			name:    "same url keeps the subscription",
			second:  newTestWebhook("wh-2", testAccount(1), domain.EventTradeExecuted, "https://example.com/a"),
			wantID:  "wh-1",
			wantURL: "https://example.com/a",
		},
		{
			name:    "new url keeps the id",
			second:  newTestWebhook("wh-2", testAccount(1), domain.EventTradeExecuted, "https://example.com/b"),
			wantID:  "wh-1",
			wantURL: "https://example.com/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewWebhookStore()
			first, created := s.Upsert(newTestWebhook("wh-1", testAccount(1), domain.EventTradeExecuted, "https://example.com/a"))
			if !created || first.WebhookID != "wh-1" {
				t.Fatalf("first upsert = (%+v, %v)", first, created)
			}

			got, created := s.Upsert(tt.second)
			if created != tt.wantCreated {
				t.Errorf("created = %v, want %v", created, tt.wantCreated)
			}
			if got.WebhookID != tt.wantID || got.URL != tt.wantURL {
				t.Errorf("got (%s, %s), want (%s, %s)", got.WebhookID, got.URL, tt.wantID, tt.wantURL)
			}

			stored, err := s.Get(tt.wantID)
			if err != nil || stored.URL != tt.wantURL {
				t.Errorf("Get(%s) = %+v (err %v)", tt.wantID, stored, err)
			}
			if !tt.wantCreated {
				if _, err := s.Get("wh-2"); err != domain.ErrWebhookNotFound {
					t.Errorf("expected the replacement id to be discarded, got %v", err)
				}
			}
		})
	}
}

func TestWebhookStore_ReadsAreCopies(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", testAccount(1), domain.EventTradeExecuted, "https://example.com/old"))

	held := s.Subscribers(domain.EventTradeExecuted, []domain.AccountID{testAccount(1)})
	if len(held) != 1 {
		t.Fatalf("expected one subscriber, got %d", len(held))
	}

	s.Upsert(newTestWebhook("wh-2", testAccount(1), domain.EventTradeExecuted, "https://example.com/new"))
	if held[0].URL != "https://example.com/old" {
		t.Errorf("a held subscription changed under its reader: %s", held[0].URL)
	}

	got, _ := s.Get("wh-1")
	got.URL = "https://example.com/mutated"
	if again, _ := s.Get("wh-1"); again.URL != "https://example.com/new" {
		t.Errorf("mutating a read leaked into the store: %s", again.URL)
	}
}

func TestWebhookStore_Subscribers(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", testAccount(1), domain.EventTradeExecuted, "https://example.com/1"))
	s.Upsert(newTestWebhook("wh-2", testAccount(2), domain.EventTradeExecuted, "https://example.com/2"))
	s.Upsert(newTestWebhook("wh-3", testAccount(2), domain.EventTokenTransferred, "https://example.com/3"))

	tests := []struct {
		name     string
		event    domain.EventType
		accounts []domain.AccountID
		want     []string
	}{
		{"both parties in order", domain.EventTradeExecuted, []domain.AccountID{testAccount(2), testAccount(1)}, []string{"wh-2", "wh-1"}},
		{"one subscribed party", domain.EventTradeExecuted, []domain.AccountID{testAccount(1), testAccount(3)}, []string{"wh-1"}},
		{"filtered by event", domain.EventTokenTransferred, []domain.AccountID{testAccount(1), testAccount(2)}, []string{"wh-3"}},
		{"no subscribers for event", domain.EventTokenApproved, []domain.AccountID{testAccount(1)}, nil},
		{"no parties", domain.EventTradeExecuted, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Subscribers(tt.event, tt.accounts)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d subscribers, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].WebhookID != id {
					t.Errorf("subscriber %d = %s, want %s", i, got[i].WebhookID, id)
				}
			}
		})
	}
}

func TestWebhookStore_ListByAccount(t *testing.T) {
	s := NewWebhookStore()
	if list := s.ListByAccount(testAccount(1)); list == nil || len(list) != 0 {
		t.Fatalf("expected non-nil empty slice, got %v", list)
	}

	s.Upsert(newTestWebhook("wh-1", testAccount(1), domain.EventTradeExecuted, "https://example.com/trades"))
	s.Upsert(newTestWebhook("wh-2", testAccount(1), domain.EventTokenApproved, "https://example.com/approvals"))
	s.Upsert(newTestWebhook("wh-3", testAccount(2), domain.EventTokenTransferred, "https://example.com/other"))

	list := s.ListByAccount(testAccount(1))
	if len(list) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(list))
	}
	if list[0].Event != domain.EventTokenApproved || list[1].Event != domain.EventTradeExecuted {
		t.Errorf("expected subscriptions ordered by event, got %s, %s", list[0].Event, list[1].Event)
	}
}

func TestWebhookStore_Delete(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", testAccount(1), domain.EventTradeExecuted, "https://example.com/trades"))
	s.Upsert(newTestWebhook("wh-2", testAccount(1), domain.EventTokenTransferred, "https://example.com/transfers"))

	if err := s.Delete("wh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get("wh-1"); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected ErrWebhookNotFound after delete, got %v", err)
	}
	if got := s.Subscribers(domain.EventTradeExecuted, []domain.AccountID{testAccount(1)}); len(got) != 0 {
		t.Fatalf("deleted subscription still resolves: %v", got)
	}

	list := s.ListByAccount(testAccount(1))
	if len(list) != 1 || list[0].WebhookID != "wh-2" {
		t.Fatalf("expected only wh-2 to remain, got %v", list)
	}

	if err := s.Delete("wh-1"); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected ErrWebhookNotFound on second delete, got %v", err)
	}
}

func TestWebhookStore_ConcurrentAccess(t *testing.T) {
	s := NewWebhookStore()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Upsert(newTestWebhook(
				fmt.Sprintf("wh-%d", i),
				testAccount(i),
				domain.EventTradeExecuted,
				fmt.Sprintf("https://example.com/hook/%d", i),
			))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			s.Subscribers(domain.EventTradeExecuted, []domain.AccountID{testAccount(i)})
		}(i)
		go func(i int) {
			defer wg.Done()
			s.ListByAccount(testAccount(i))
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = s.Delete(fmt.Sprintf("wh-%d", i))
		}(i)
	}
	wg.Wait()

	if got := s.Subscribers(domain.EventTradeExecuted, []domain.AccountID{testAccount(0), testAccount(99)}); len(got) != 0 {
		t.Errorf("expected every subscription deleted, got %d", len(got))
	}
}
