package integrationtests

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"baldsphere-backend/pkg/api"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

func skipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func setupPostgresBackend(t *testing.T, ctx context.Context) *storage.SQLBackend {
	db, err := database.NewDatabase(setupPostgresContainer(t, ctx), database.PoolOptions{MaxOpenConns: 10})
	require.NoError(t, err)

	backend := storage.NewSQLBackend(db)
	t.Cleanup(func() {
		backend.Close() //nolint:errcheck
	})
	return backend
}

func setupRabbitMQContainer(t *testing.T, ctx context.Context) string {
	url, _ := startRabbitMQContainer(t, ctx)
	return url
}

func startRabbitMQContainer(t *testing.T, ctx context.Context) (string, *rabbitmq.RabbitMQContainer) {
	rabbitmqContainer, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err, "Failed to start RabbitMQ container")

	t.Cleanup(func() {
		err := rabbitmqContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate RabbitMQ container")
	})

	connStr, err := rabbitmqContainer.AmqpURL(ctx)
	require.NoError(t, err, "Failed to get RabbitMQ AMQP URL")

	return connStr, rabbitmqContainer
}

func httpRequest(handler http.Handler, method, endpoint string, payload any, expectedCode int, dest any) error {
	var body io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(requestBody)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != expectedCode {
		return fmt.Errorf("expected status code %d, got %d: %v", expectedCode, rr.Code, rr.Body.String())
	}

	var res struct {
		api.Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("request failed: %s (%s)", res.Error, res.Details)
	}

	if dest != nil {
		if err := json.Unmarshal(res.Data, dest); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}
