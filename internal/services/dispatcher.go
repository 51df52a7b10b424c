package services

import (
	"context"
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/pkg/logger"
	"github.com/google/uuid"
)

// Dispatcher feeds notification tasks into the queue and processes
// them on the consuming side. The same ProcessTask backs both the
// asynq worker and the in-process sync queue.
type Dispatcher struct {
	notifications *NotificationService
	queue         TaskQueue
}

func NewDispatcher(notifications *NotificationService, queue TaskQueue) *Dispatcher {
	return &Dispatcher{notifications: notifications, queue: queue}
}

// DispatchScenario queues a scenario-routed dispatch and returns its
// batch id.
func (d *Dispatcher) DispatchScenario(scenario, title, content string, extra map[string]interface{}) (string, error) {
	if !IsValidScenario(scenario) {
		return "", fmt.Errorf("unknown scenario: %s", scenario)
	}

	task := &NotificationTask{
		BatchID:   uuid.NewString(),
		Scenario:  scenario,
		Title:     title,
		Content:   content,
		ExtraData: extra,
	}
	if err := d.queue.Enqueue(task); err != nil {
		return "", err
	}
	return task.BatchID, nil
}

// DispatchClients queues a dispatch to an explicit client list.
func (d *Dispatcher) DispatchClients(clientIDs []uint, title, content string, extra map[string]interface{}) (string, error) {
	task := &NotificationTask{
		BatchID:   uuid.NewString(),
		ClientIDs: clientIDs,
		Title:     title,
		Content:   content,
		ExtraData: extra,
	}
	if err := d.queue.Enqueue(task); err != nil {
		return "", err
	}
	return task.BatchID, nil
}

// ProcessTask executes one queued dispatch and records the outcome in
// the system log.
func (d *Dispatcher) ProcessTask(ctx context.Context, task *NotificationTask) error {
	var results []SendResult
	var err error

	if len(task.ClientIDs) > 0 {
		results, err = d.notifications.SendToClients(task.ClientIDs, task.Title, task.Content, task.ExtraData)
	} else {
		results, err = d.notifications.SendToScenario(task.Scenario, task.Title, task.Content, task.ExtraData)
	}
	if err != nil {
		LogError("notification", "dispatch", err.Error(), nil, "", "", map[string]interface{}{
			"batch_id": task.BatchID,
			"scenario": task.Scenario,
		})
		return err
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	logger.Info().
		Str("batch_id", task.BatchID).
		Int("total", len(results)).
		Int("succeeded", succeeded).
		Msg("notification batch processed")

	LogInfo("notification", "dispatch",
		fmt.Sprintf("batch %s delivered %d/%d", task.BatchID, succeeded, len(results)),
		nil, "", "", map[string]interface{}{
			"batch_id": task.BatchID,
			"scenario": task.Scenario,
			"results":  results,
		})
	return nil
}
