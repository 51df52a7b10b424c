package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
)

func webhookClient(name, url string, enabled bool, switches map[string]bool) models.NotificationClient {
	return models.NotificationClient{
		Name:     name,
		Type:     ClientTypeWebhook,
		Config:   models.JSONMap{"url": url},
		Switches: models.SwitchMap(switches),
		Enabled:  enabled,
	}
}

func TestSendToMultiple_ResultOrder(t *testing.T) {
	// The slow healthy endpoint finishes last; its result must still
	// land at its input position.
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	clients := []models.NotificationClient{
		webhookClient("slow-ok", slow.URL, true, nil),
		webhookClient("failing", failing.URL, true, nil),
		{Name: "broken-type", Type: "carrier_pigeon", Enabled: true},
	}
	clients[0].ID = 1
	clients[1].ID = 2
	clients[2].ID = 3

	svc := NewNotificationService(nil)
	results := svc.SendToMultiple(clients, "title", "content", nil)

	if len(results) != 3 {
		t.Fatalf("got %d results, expected 3", len(results))
	}

	if results[0].ClientName != "slow-ok" || !results[0].Success {
		t.Errorf("result[0] = %+v, expected slow-ok success", results[0])
	}
	if results[1].ClientName != "failing" || results[1].Success {
		t.Errorf("result[1] = %+v, expected failing failure", results[1])
	}
	if !strings.Contains(results[1].Message, "500") {
		t.Errorf("failing result message = %q", results[1].Message)
	}
	if results[2].ClientName != "broken-type" || results[2].Success {
		t.Errorf("result[2] = %+v, expected unknown type failure", results[2])
	}
	if !strings.Contains(results[2].Message, "carrier_pigeon") {
		t.Errorf("unknown type message = %q", results[2].Message)
	}
}

func TestSendToMultiple_Concurrent(t *testing.T) {
	var inflight, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	clients := make([]models.NotificationClient, 4)
	for i := range clients {
		clients[i] = webhookClient("c", server.URL, true, nil)
	}

	svc := NewNotificationService(nil)
	start := time.Now()
	results := svc.SendToMultiple(clients, "title", "content", nil)
	elapsed := time.Since(start)

	for i, r := range results {
		if !r.Success {
			t.Errorf("result[%d] failed: %s", i, r.Message)
		}
	}
	if atomic.LoadInt32(&peak) < 2 {
		t.Errorf("deliveries did not overlap, peak inflight = %d", peak)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("4 overlapping 50ms sends took %v", elapsed)
	}
}

func TestSendToMultiple_Empty(t *testing.T) {
	svc := NewNotificationService(nil)
	results := svc.SendToMultiple(nil, "title", "content", nil)
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %d", len(results))
	}
}

func TestNotificationTest_RoundTrip(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decodeJSONBody(t, r, &payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhookClient("checker", server.URL, true, nil)
	svc := NewNotificationService(nil)

	result := svc.Test(&client)
	if !result.Success {
		t.Fatalf("Test() failed: %s", result.Message)
	}
	if result.DurationMS < 0 {
		t.Errorf("DurationMS = %d", result.DurationMS)
	}
	if payload["title"] != "test title" || payload["content"] != "test message" {
		t.Errorf("test payload = %v", payload)
	}
}

func TestNotificationTest_UnknownType(t *testing.T) {
	client := models.NotificationClient{Name: "x", Type: "nope"}
	svc := NewNotificationService(nil)

	result := svc.Test(&client)
	if result.Success {
		t.Fatal("unknown type should fail the connection test")
	}
}

func TestSendToScenario_Eligibility(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	db := newTestDB(t)
	clients := NewNotificationClientService(db)
	svc := NewNotificationService(clients)

	subscribed := webhookClient("subscribed", server.URL, true, map[string]bool{"security_alert": true})
	unsubscribed := webhookClient("unsubscribed", server.URL, true, map[string]bool{"security_alert": false})
	disabled := webhookClient("disabled", server.URL, false, map[string]bool{"security_alert": true})
	mustCreate(t, db, &subscribed)
	mustCreate(t, db, &unsubscribed)
	mustCreate(t, db, &disabled)

	results, err := svc.SendToScenario("security_alert", "title", "content", nil)
	if err != nil {
		t.Fatalf("SendToScenario() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, expected only the subscribed client", len(results))
	}
	if results[0].ClientName != "subscribed" || !results[0].Success {
		t.Errorf("result = %+v", results[0])
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hit %d times, expected 1", hits)
	}
}

func TestSendToScenario_Unknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(NewNotificationClientService(db))

	if _, err := svc.SendToScenario("made_up", "t", "c", nil); err == nil {
		t.Error("unknown scenario should error")
	}
}

func TestSendToScenario_NoEligibleClients(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(NewNotificationClientService(db))

	results, err := svc.SendToScenario("user_login", "t", "c", nil)
	if err != nil {
		t.Fatalf("SendToScenario() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSendToClients_UnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(NewNotificationClientService(db))

	if _, err := svc.SendToClients([]uint{9999}, "t", "c", nil); err == nil {
		t.Error("unknown client id should fail the whole call")
	}
}
