package integrationtests

import (
	"baldsphere-backend/internal/messaging"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRabbitMQ(t *testing.T) {
	skipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	url := setupRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	receiver, err := messaging.NewRabbitMQReceiver(url)
	require.NoError(t, err)
	defer receiver.Close()

	t.Run("PublishAndReceiveContactMessage", func(t *testing.T) {
		payload := messaging.ContactMessagePayload{
			MessageId: uuid.New(),
			Name:      "Ada",
			Email:     "ada@example.com",
			Subject:   "General Inquiry",
			Message:   "hello",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, publisher.PublishContactMessage(ctx, payload))

		select {
		case task := <-receiver.Tasks():
			assert.Equal(t, messaging.ContactNotificationQueue, task.Type())

			var received messaging.ContactMessagePayload
			require.NoError(t, json.Unmarshal(task.Payload(), &received))
			assert.Equal(t, payload.MessageId, received.MessageId)
			assert.Equal(t, payload.Email, received.Email)
			require.NoError(t, task.Ack())
		case <-ctx.Done():
			t.Fatal("timed out waiting for contact message")
		}
	})

	t.Run("NackRedelivers", func(t *testing.T) {
		payload := messaging.ContactMessagePayload{MessageId: uuid.New(), Name: "Ada", Email: "ada@example.com", Message: "again"}
		require.NoError(t, publisher.PublishContactMessage(ctx, payload))

		task := <-receiver.Tasks()
		require.NoError(t, task.Nack())

		select {
		case redelivered := <-receiver.Tasks():
			var received messaging.ContactMessagePayload
			require.NoError(t, json.Unmarshal(redelivered.Payload(), &received))
			assert.Equal(t, payload.MessageId, received.MessageId)
			require.NoError(t, redelivered.Ack())
		case <-time.After(30 * time.Second):
			t.Fatal("nacked message was not redelivered")
		}
	})
}

func TestRabbitMQPublishAfterBrokerStops(t *testing.T) {
	skipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	url, container := startRabbitMQContainer(t, ctx)

	publisher, err := messaging.NewRabbitMQPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	payload := messaging.ContactMessagePayload{MessageId: uuid.New(), Name: "Ada", Email: "ada@example.com", Message: "hello"}
	require.NoError(t, publisher.PublishContactMessage(ctx, payload))

	stopTimeout := 10 * time.Second
	require.NoError(t, container.Stop(ctx, &stopTimeout))

	require.Eventually(t, func() bool {
		publishCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := publisher.PublishContactMessage(publishCtx, payload)
		return errors.Is(err, messaging.ErrPublisherUnavailable) && time.Since(start) < time.Second
	}, 30*time.Second, 200*time.Millisecond)
}
