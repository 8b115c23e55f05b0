package storage

import (
	"baldsphere-backend/internal/config"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	mode Mode
}

func (s *stubBackend) Mode() Mode                                   { return s.mode }
func (s *stubBackend) Exec(context.Context, Query) (*Result, error) { return &Result{}, nil }
func (s *stubBackend) Ping(context.Context) error                   { return nil }
func (s *stubBackend) Close() error                                 { return nil }

func stubOpener() opener {
	return opener{
		local: func(config.PostgresConfig) (Backend, error) {
			return &stubBackend{mode: ModeLocal}, nil
		},
		supabase: func(config.SupabaseConfig) (Backend, error) {
			return &stubBackend{mode: ModeSupabase}, nil
		},
	}
}

func storageConfig(mode string, local, supabase bool) config.StorageConfig {
	cfg := config.StorageConfig{Mode: mode}
	if local {
		cfg.Postgres = config.PostgresConfig{Host: "localhost", Password: "secret"}
	}
	if supabase {
		cfg.Supabase = config.SupabaseConfig{URL: "https://project.supabase.co", AnonKey: "anon"}
	}
	return cfg
}

func TestBackendSelection(t *testing.T) {
	for _, tc := range []struct {
		name     string
		cfg      config.StorageConfig
		expected Mode
		err      error
	}{
		{"local", storageConfig("local", true, true), ModeLocal, nil},
		{"local unavailable", storageConfig("local", false, true), "", ErrLocalUnavailable},
		{"supabase", storageConfig("supabase", true, true), ModeSupabase, nil},
		{"supabase unavailable", storageConfig("supabase", true, false), "", ErrSupabaseUnavailable},
		{"hybrid prefers local", storageConfig("hybrid", true, true), ModeLocal, nil},
		{"hybrid falls back to supabase", storageConfig("hybrid", false, true), ModeSupabase, nil},
		{"hybrid with nothing", storageConfig("hybrid", false, false), "", ErrNoBackend},
		{"empty mode is hybrid", storageConfig("", false, true), ModeSupabase, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			backend, err := stubOpener().open(tc.cfg)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, backend.Mode())
		})
	}
}

func TestBackendSelectionInvalidMode(t *testing.T) {
	_, err := stubOpener().open(storageConfig("remote", true, true))
	assert.ErrorContains(t, err, "invalid database mode")
}

func TestCheckAvailability(t *testing.T) {
	avail, err := CheckAvailability(storageConfig("supabase", false, true))
	require.NoError(t, err)
	assert.Equal(t, Availability{Local: false, Supabase: true, Mode: ModeSupabase}, avail)

	cfg := storageConfig("hybrid", false, false)
	cfg.Supabase = config.SupabaseConfig{URL: "your_supabase_url_here", AnonKey: "anon"}
	avail, err = CheckAvailability(cfg)
	require.NoError(t, err)
	assert.False(t, avail.Supabase)

	cfg.Postgres = config.PostgresConfig{DSN: "postgres://localhost/baldsphere"}
	avail, err = CheckAvailability(cfg)
	require.NoError(t, err)
	assert.True(t, avail.Local)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(ErrNoBackend))
	assert.True(t, IsUnavailable(errors.Join(errors.New("dial tcp"), ErrConnection)))
	assert.False(t, IsUnavailable(ErrAlreadyExists))
}
