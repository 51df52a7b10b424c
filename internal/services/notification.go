package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/logger"
)

// NewSender builds the transport for a client based on its type.
func NewSender(client *models.NotificationClient) (Sender, error) {
	config := client.MarshalConfig()
	switch client.Type {
	case ClientTypeWechatWork:
		return NewWechatWorkSender(config), nil
	case ClientTypeTelegram:
		return NewTelegramSender(config), nil
	case ClientTypeEmail:
		return NewEmailSender(config), nil
	case ClientTypeWebhook:
		return NewWebhookSender(config), nil
	default:
		return nil, fmt.Errorf("unknown client type: %s", client.Type)
	}
}

// SendResult reports the outcome for one client of a dispatch.
type SendResult struct {
	ClientID   uint   `json:"client_id"`
	ClientName string `json:"client_name"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}

// TestResult carries the connection test outcome with the observed round trip.
type TestResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

type NotificationService struct {
	clients *NotificationClientService
}

func NewNotificationService(clients *NotificationClientService) *NotificationService {
	return &NotificationService{clients: clients}
}

// Test sends a fixed test message through the client's channel and measures
// the round trip.
func (s *NotificationService) Test(client *models.NotificationClient) *TestResult {
	sender, err := NewSender(client)
	if err != nil {
		return &TestResult{Success: false, Message: err.Error()}
	}

	start := time.Now()
	ok, msg := TestConnection(sender)
	return &TestResult{
		Success:    ok,
		Message:    msg,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

// SendToMultiple delivers one message to every client concurrently.
// The result slice is ordered exactly like the input regardless of
// which delivery finishes first.
func (s *NotificationService) SendToMultiple(clients []models.NotificationClient, title, content string, extra map[string]interface{}) []SendResult {
	results := make([]SendResult, len(clients))

	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(idx int, client models.NotificationClient) {
			defer wg.Done()

			result := SendResult{ClientID: client.ID, ClientName: client.Name}
			sender, err := NewSender(&client)
			if err != nil {
				result.Message = err.Error()
				results[idx] = result
				return
			}

			ok, msg := sender.Send(title, content, extra)
			result.Success = ok
			result.Message = msg
			results[idx] = result
		}(i, clients[i])
	}
	wg.Wait()

	return results
}

// SendToScenario resolves every client subscribed to the scenario and
// fans the message out to them.
func (s *NotificationService) SendToScenario(scenario, title, content string, extra map[string]interface{}) ([]SendResult, error) {
	if !IsValidScenario(scenario) {
		return nil, fmt.Errorf("unknown scenario: %s", scenario)
	}

	clients, err := s.clients.ListByScenario(scenario)
	if err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return []SendResult{}, nil
	}

	results := s.SendToMultiple(clients, title, content, extra)
	for _, r := range results {
		if !r.Success {
			logger.Warn().
				Str("scenario", scenario).
				Uint("client_id", r.ClientID).
				Str("message", r.Message).
				Msg("notification delivery failed")
		}
	}
	return results, nil
}

// SendToClients delivers to an explicit id list, preserving the order
// of the requested ids. Unknown ids fail the whole call.
func (s *NotificationService) SendToClients(clientIDs []uint, title, content string, extra map[string]interface{}) ([]SendResult, error) {
	clients := make([]models.NotificationClient, 0, len(clientIDs))
	for _, id := range clientIDs {
		client, err := s.clients.GetByID(id)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *client)
	}
	return s.SendToMultiple(clients, title, content, extra), nil
}
