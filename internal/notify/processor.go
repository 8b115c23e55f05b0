package notify

import (
	"baldsphere-backend/internal/messaging"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var ErrMalformedPayload = errors.New("malformed contact notification payload")

type WebhookMessage struct {
	Text    string                          `json:"text"`
	Contact messaging.ContactMessagePayload `json:"contact"`
}

// Processor forwards contact notifications from a queue to a webhook.
type Processor struct {
	reciever messaging.Reciever
	client   *resty.Client
	url      string
}

func NewProcessor(reciever messaging.Reciever, webhookURL string, timeout time.Duration) *Processor {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Processor{reciever: reciever, client: client, url: webhookURL}
}

// Start consumes tasks until the reciever closes its channel or ctx is done.
func (p *Processor) Start(ctx context.Context) {
	slog.Info("starting contact notification processor", "webhook", p.url)
	for {
		select {
		case task, ok := <-p.reciever.Tasks():
			if !ok {
				slog.Info("task channel closed, stopping contact notification processor")
				return
			}
			p.ProcessTask(ctx, task)
		case <-ctx.Done():
			slog.Info("stopping contact notification processor", "reason", ctx.Err())
			return
		}
	}
}

func (p *Processor) ProcessTask(ctx context.Context, task messaging.Task) {
	if task.Type() != messaging.ContactNotificationQueue {
		slog.Error("received task from unexpected queue", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	err := p.deliver(ctx, task.Payload())
	switch {
	case err == nil:
		if err := task.Ack(); err != nil {
			slog.Error("error acking task", "error", err)
		}
	case errors.Is(err, ErrMalformedPayload):
		slog.Error("dropping contact notification", "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
	default:
		slog.Error("contact notification delivery failed", "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error nacking task", "error", err)
		}
	}
}

func (p *Processor) deliver(ctx context.Context, data []byte) error {
	var payload messaging.ContactMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if payload.MessageId == uuid.Nil || payload.Email == "" {
		return fmt.Errorf("%w: message id and email are required", ErrMalformedPayload)
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(WebhookMessage{
			Text:    fmt.Sprintf("New contact message from %s <%s>: %s", payload.Name, payload.Email, payload.Subject),
			Contact: payload,
		}).
		Post(p.url)
	if err != nil {
		return fmt.Errorf("error calling webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook returned status %d: %s", res.StatusCode(), res.String())
	}

	slog.Info("delivered contact notification", "message_id", payload.MessageId)
	return nil
}
