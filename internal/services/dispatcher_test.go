package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchScenario_UnknownScenario(t *testing.T) {
	d := NewDispatcher(nil, NewSyncQueue())
	if _, err := d.DispatchScenario("made_up", "t", "c", nil); err == nil {
		t.Error("unknown scenario should be rejected before enqueue")
	}
}

func TestDispatchScenario_BatchIDs(t *testing.T) {
	d := NewDispatcher(nil, NewSyncQueue())

	id1, err := d.DispatchScenario("user_login", "t", "c", nil)
	if err != nil {
		t.Fatalf("DispatchScenario() error = %v", err)
	}
	id2, _ := d.DispatchScenario("user_login", "t", "c", nil)

	if id1 == "" || id1 == id2 {
		t.Errorf("batch ids should be unique and non-empty: %q vs %q", id1, id2)
	}
}

func TestDispatcher_EndToEnd(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	db := newTestDB(t)
	clients := NewNotificationClientService(db)
	subscribed := webhookClient("subscribed", server.URL, true, map[string]bool{"security_alert": true})
	mustCreate(t, db, &subscribed)

	queue := NewSyncQueue()
	d := NewDispatcher(NewNotificationService(clients), queue)
	queue.SetProcessor(d.ProcessTask)

	if _, err := d.DispatchScenario("security_alert", "t", "c", nil); err != nil {
		t.Fatalf("DispatchScenario() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&hits) == 0 {
		select {
		case <-deadline:
			t.Fatal("dispatch never reached the endpoint")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestProcessTask_ExplicitClients(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	db := newTestDB(t)
	clients := NewNotificationClientService(db)
	target := webhookClient("target", server.URL, true, nil)
	mustCreate(t, db, &target)

	d := NewDispatcher(NewNotificationService(clients), NewSyncQueue())

	task := &NotificationTask{
		BatchID:   "b1",
		ClientIDs: []uint{target.ID},
		Title:     "t",
		Content:   "c",
	}
	if err := d.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("endpoint hit %d times, expected 1", hits)
	}
}
