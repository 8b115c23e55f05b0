package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ContactNotificationQueue = "contact_notifications"
	RetryDelay               = 5 * time.Second
	MaxRetryDelay            = time.Minute
	MaxConnectRetry          = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type ContactMessagePayload struct {
	MessageId uuid.UUID     `json:"message_id"`
	UserId    uuid.NullUUID `json:"user_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

type Publisher interface {
	PublishContactMessage(ctx context.Context, payload ContactMessagePayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
