package core_test

import (
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/storage"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads []messaging.ContactMessagePayload
	err      error
}

func (p *fakePublisher) PublishContactMessage(ctx context.Context, payload messaging.ContactMessagePayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() {}

func createService(t *testing.T, publisher messaging.Publisher) (*core.Service, *gorm.DB) {
	t.Helper()
	db, err := database.NewInMemoryDatabase()
	require.NoError(t, err)
	backend := storage.NewSQLBackend(db)
	t.Cleanup(func() { backend.Close() }) //nolint:errcheck
	return core.NewService(backend, publisher), db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestStatus(t *testing.T) {
	service, _ := createService(t, nil)

	status := service.Status(context.Background())
	assert.Equal(t, storage.ModeLocal, status.Backend)
	assert.True(t, status.Connected)
	assert.Empty(t, status.Error)
}

type brokenBackend struct{}

func (brokenBackend) Mode() storage.Mode { return storage.ModeSupabase }
func (brokenBackend) Exec(context.Context, storage.Query) (*storage.Result, error) {
	return nil, storage.ErrConnection
}
func (brokenBackend) Ping(context.Context) error { return errors.New("connection refused") }
func (brokenBackend) Close() error               { return nil }

func TestStatusDisconnected(t *testing.T) {
	service := core.NewService(brokenBackend{}, nil)

	status := service.Status(context.Background())
	assert.False(t, status.Connected)
	assert.Equal(t, "connection refused", status.Error)

	_, err := service.ListUsers(context.Background(), 10)
	assert.True(t, storage.IsUnavailable(err))
}
