package storage

import (
	"baldsphere-backend/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
)

type Mode string

const (
	ModeLocal    Mode = "local"
	ModeSupabase Mode = "supabase"
	ModeHybrid   Mode = "hybrid"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal:
		return ModeLocal, nil
	case ModeSupabase:
		return ModeSupabase, nil
	case ModeHybrid, "":
		return ModeHybrid, nil
	default:
		return "", fmt.Errorf("invalid database mode '%s': must be one of local, supabase, hybrid", s)
	}
}

var (
	ErrLocalUnavailable    = errors.New("Local database not available")
	ErrSupabaseUnavailable = errors.New("Supabase not available")
	ErrNoBackend           = errors.New("no database backend configured")

	ErrUnsupportedQuery = errors.New("unsupported query")
	ErrAlreadyExists    = errors.New("record already exists")
	ErrNotFound         = errors.New("record not found")
	ErrConnection       = errors.New("database connection failed")
	ErrUnauthorized     = errors.New("database authentication failed")
)

// IsUnavailable reports whether err means no backend could be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnection) || errors.Is(err, ErrNoBackend) ||
		errors.Is(err, ErrLocalUnavailable) || errors.Is(err, ErrSupabaseUnavailable)
}

type Result struct {
	Rows     []any
	RowCount int
}

func rowsOf[T any](items []T) *Result {
	rows := make([]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, item)
	}
	return &Result{Rows: rows, RowCount: len(rows)}
}

func single[T any](item T) *Result {
	return &Result{Rows: []any{item}, RowCount: 1}
}

type Backend interface {
	Mode() Mode

	Exec(ctx context.Context, q Query) (*Result, error)

	Ping(ctx context.Context) error

	Close() error
}

func unsupported(backend Mode, q Query) error {
	return fmt.Errorf("%w: %s is not supported by the %s backend", ErrUnsupportedQuery, q.QueryName(), backend)
}

// All executes q and returns its rows as T.
func All[T any](ctx context.Context, b Backend, q Query) ([]T, error) {
	res, err := b.Exec(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(res.Rows))
	for _, row := range res.Rows {
		v, ok := row.(T)
		if !ok {
			return nil, fmt.Errorf("%s returned %T, expected %T", q.QueryName(), row, v)
		}
		out = append(out, v)
	}
	return out, nil
}

// One executes q and returns its first row, or ErrNotFound.
func One[T any](ctx context.Context, b Backend, q Query) (T, error) {
	rows, err := All[T](ctx, b, q)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, q.QueryName())
	}
	return rows[0], nil
}

type Availability struct {
	Local    bool `json:"local"`
	Supabase bool `json:"supabase"`
	Mode     Mode `json:"mode"`
}

// CheckAvailability reports which backends have credentials configured. It
// never opens a connection.
func CheckAvailability(cfg config.StorageConfig) (Availability, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		Local:    cfg.Postgres.Configured(),
		Supabase: cfg.Supabase.Configured(),
		Mode:     mode,
	}, nil
}

type opener struct {
	local    func(config.PostgresConfig) (Backend, error)
	supabase func(config.SupabaseConfig) (Backend, error)
}

var defaultOpener = opener{
	local: func(cfg config.PostgresConfig) (Backend, error) {
		return OpenSQLBackend(cfg)
	},
	supabase: func(cfg config.SupabaseConfig) (Backend, error) {
		return NewSupabaseBackend(cfg), nil
	},
}

// Open picks the backend for the configured mode once; callers only ever see
// the Backend interface.
func Open(cfg config.StorageConfig) (Backend, error) {
	return defaultOpener.open(cfg)
}

func (o opener) open(cfg config.StorageConfig) (Backend, error) {
	avail, err := CheckAvailability(cfg)
	if err != nil {
		return nil, err
	}

	var target Mode
	switch avail.Mode {
	case ModeLocal:
		if !avail.Local {
			return nil, ErrLocalUnavailable
		}
		target = ModeLocal
	case ModeSupabase:
		if !avail.Supabase {
			return nil, ErrSupabaseUnavailable
		}
		target = ModeSupabase
	default:
		switch {
		case avail.Local:
			target = ModeLocal
		case avail.Supabase:
			target = ModeSupabase
		default:
			return nil, ErrNoBackend
		}
	}

	slog.Info("selected database backend", "mode", avail.Mode, "backend", target, "local_configured", avail.Local, "supabase_configured", avail.Supabase)

	if target == ModeLocal {
		return o.local(cfg.Postgres)
	}
	return o.supabase(cfg.Supabase)
}

func regionsOf(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var regions []string
	if err := json.Unmarshal(raw, &regions); err != nil {
		return nil, fmt.Errorf("invalid brain_regions: %w", err)
	}
	return regions, nil
}
