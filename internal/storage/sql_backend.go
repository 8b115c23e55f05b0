package storage

import (
	"baldsphere-backend/internal/config"
	"baldsphere-backend/internal/database"
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLBackend runs queries directly against a relational database through
// gorm's connection pool. Postgres in production, sqlite for the local server
// and tests.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func OpenSQLBackend(cfg config.PostgresConfig) (*SQLBackend, error) {
	db, err := database.NewDatabase(cfg.URL(), database.PoolOptions{
		MaxOpenConns: cfg.MaxOpenConns,
		IdleTimeout:  cfg.IdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return NewSQLBackend(db), nil
}

func (b *SQLBackend) Mode() Mode {
	return ModeLocal
}

func (b *SQLBackend) DB() *gorm.DB {
	return b.db
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return classifySQLError(err)
	}
	return classifySQLError(sqlDB.PingContext(ctx))
}

func (b *SQLBackend) Close() error {
	return database.Close(b.db)
}

func (b *SQLBackend) Exec(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	res, err := b.exec(ctx, b.db.WithContext(ctx), q)
	if err != nil {
		slog.Error("local query failed", "query", q.QueryName(), "duration", time.Since(start), "error", err)
		return nil, classifySQLError(err)
	}
	slog.Debug("local query", "query", q.QueryName(), "duration", time.Since(start), "rows", res.RowCount)
	return res, nil
}

func (b *SQLBackend) exec(ctx context.Context, db *gorm.DB, q Query) (*Result, error) {
	switch q := q.(type) {
	case FindUserByEmail:
		return findAll[database.User](db.Where("email = ?", q.Email).Limit(1))
	case FindUserByID:
		return findAll[database.User](db.Where("id = ?", q.UserId).Limit(1))
	case ListUsers:
		return findAll[database.User](db.Order("created_at DESC").Limit(limitOr(q.Limit, defaultLimit)))
	case InsertUser:
		user := q.User
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("error inserting user: %w", err)
		}
		return single(user), nil
	case UpsertUser:
		return b.upsertUser(db, q.User)
	case EnsureUser:
		return b.ensureUser(db, q.User)
	case TouchLastLogin:
		res := db.Model(&database.User{}).Where("id = ?", q.UserId).Update("last_login", q.At)
		if res.Error != nil {
			return nil, fmt.Errorf("error updating last login: %w", res.Error)
		}
		return &Result{Rows: []any{}, RowCount: int(res.RowsAffected)}, nil

	case InsertUserPreferences:
		prefs := q.Preferences
		if err := db.Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("error inserting user preferences: %w", err)
		}
		return single(prefs), nil
	case FindUserPreferences:
		return findAll[database.UserPreferences](db.Where("user_id = ?", q.UserId).Limit(1))
	case ListUserPreferences:
		return findAll[database.UserPreferences](db.Order("created_at DESC").Limit(limitOr(q.Limit, defaultLimit)))

	case InsertChatSession:
		session := q.Session
		if err := db.Create(&session).Error; err != nil {
			return nil, fmt.Errorf("error inserting chat session: %w", err)
		}
		return single(session), nil
	case ListChatSessions:
		if q.UserId.Valid {
			return findAll[database.ChatSession](db.
				Where("user_id = ? AND is_active = ?", q.UserId.UUID, true).
				Order("updated_at DESC").
				Limit(limitOr(q.Limit, 20)))
		}
		return findAll[database.ChatSession](db.Order("created_at DESC").Limit(limitOr(q.Limit, defaultLimit)))
	case AppendChatMessage:
		return b.appendChatMessage(db, q.Message)
	case ListChatMessages:
		return b.listChatMessages(db, q)

	case RecordBrainActivity:
		return b.recordBrainActivity(db, q.Activity)
	case ListBrainActivities:
		query := db.Order("created_at DESC").Limit(limitOr(q.Limit, 50))
		if q.SessionId.Valid {
			query = query.Where("session_id = ?", q.SessionId.UUID)
		}
		return findAll[database.BrainActivity](query)
	case ListRegionStats:
		query := db.Order("activation_count DESC").Order("region_name ASC").Limit(limitOr(q.Limit, defaultLimit))
		if q.UserId.Valid {
			query = query.Where("user_id = ?", q.UserId.UUID)
		}
		return findAll[database.BrainRegionStats](query)

	case InsertContactMessage:
		msg := q.Message
		if err := db.Omit(clause.Associations).Create(&msg).Error; err != nil {
			return nil, fmt.Errorf("error inserting contact message: %w", err)
		}
		return single(msg), nil
	case ListContactMessages:
		query := db.Table("contact_messages AS cm").
			Select("cm.*, u.name AS user_name").
			Joins("LEFT JOIN users u ON u.id = cm.user_id").
			Order("cm.created_at DESC").
			Limit(limitOr(q.Limit, 50))
		if q.UnreadOnly {
			query = query.Where("cm.is_read = ?", false)
		}
		var msgs []database.ContactMessage
		if err := query.Scan(&msgs).Error; err != nil {
			return nil, fmt.Errorf("error listing contact messages: %w", err)
		}
		return rowsOf(msgs), nil
	case MarkContactMessageRead:
		return b.markContactMessageRead(db, q)

	case RawSQL:
		return b.raw(ctx, q)
	default:
		return nil, unsupported(ModeLocal, q)
	}
}

func findAll[T any](query *gorm.DB) (*Result, error) {
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		var zero T
		return nil, fmt.Errorf("error querying %T: %w", zero, err)
	}
	return rowsOf(rows), nil
}

func (b *SQLBackend) upsertUser(db *gorm.DB, user database.User) (*Result, error) {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return findAll[database.User](db.Where("email = ?", user.Email).Limit(1))
}

func (b *SQLBackend) ensureUser(db *gorm.DB, user database.User) (*Result, error) {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("error ensuring user: %w", err)
	}
	return findAll[database.User](db.Where("email = ?", user.Email).Limit(1))
}

func (b *SQLBackend) appendChatMessage(db *gorm.DB, msg database.ChatMessage) (*Result, error) {
	err := db.Transaction(func(txn *gorm.DB) error {
		res := txn.Model(&database.ChatSession{}).Where("id = ?", msg.SessionId).Update("updated_at", msg.CreatedAt)
		if res.Error != nil {
			return fmt.Errorf("error updating chat session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: chat session %v", ErrNotFound, msg.SessionId)
		}
		if err := txn.Create(&msg).Error; err != nil {
			return fmt.Errorf("error inserting chat message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return single(msg), nil
}

func (b *SQLBackend) listChatMessages(db *gorm.DB, q ListChatMessages) (*Result, error) {
	query := db.Table("chat_messages AS cm").
		Select("cm.*, cs.user_id AS user_id, cs.title AS title").
		Joins("JOIN chat_sessions cs ON cs.id = cm.session_id")

	switch {
	case q.SessionId.Valid:
		query = query.Where("cm.session_id = ?", q.SessionId.UUID).Order("cm.created_at ASC")
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
	case q.UserEmail != "":
		query = query.Joins("JOIN users u ON u.id = cs.user_id").
			Where("u.email = ?", q.UserEmail).
			Order("cm.created_at DESC").
			Limit(limitOr(q.Limit, defaultLimit))
	default:
		query = query.Order("cm.created_at DESC").Limit(limitOr(q.Limit, defaultLimit))
	}

	var msgs []database.ChatMessage
	if err := query.Scan(&msgs).Error; err != nil {
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	return rowsOf(msgs), nil
}

func (b *SQLBackend) recordBrainActivity(db *gorm.DB, activity database.BrainActivity) (*Result, error) {
	regions, err := regionsOf(activity.BrainRegions)
	if err != nil {
		return nil, err
	}

	var duration int64
	if activity.DurationMs != nil {
		duration = *activity.DurationMs
	}

	err = db.Transaction(func(txn *gorm.DB) error {
		var session database.ChatSession
		if err := txn.Select("id", "user_id").Where("id = ?", activity.SessionId).Take(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: chat session %v", ErrNotFound, activity.SessionId)
			}
			return fmt.Errorf("error loading chat session: %w", err)
		}

		if err := txn.Omit(clause.Associations).Create(&activity).Error; err != nil {
			return fmt.Errorf("error inserting brain activity: %w", err)
		}

		for _, region := range regions {
			stat := database.BrainRegionStats{
				Id:              uuid.New(),
				UserId:          session.UserId,
				RegionName:      region,
				ActivationCount: 1,
				TotalDurationMs: duration,
				LastActivated:   activity.CreatedAt,
				CreatedAt:       activity.CreatedAt,
			}
			err := txn.Omit(clause.Associations).Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "region_name"}},
				DoUpdates: clause.Assignments(map[string]any{
					"activation_count":  gorm.Expr("brain_region_stats.activation_count + 1"),
					"total_duration_ms": gorm.Expr("brain_region_stats.total_duration_ms + ?", duration),
					"last_activated":    activity.CreatedAt,
				}),
			}).Create(&stat).Error
			if err != nil {
				return fmt.Errorf("error updating stats for region %s: %w", region, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return single(activity), nil
}

func (b *SQLBackend) markContactMessageRead(db *gorm.DB, q MarkContactMessageRead) (*Result, error) {
	res := db.Model(&database.ContactMessage{}).
		Where("id = ?", q.MessageId).
		Updates(map[string]any{"is_read": q.Read, "updated_at": q.At})
	if res.Error != nil {
		return nil, fmt.Errorf("error updating contact message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: contact message %v", ErrNotFound, q.MessageId)
	}
	return findAll[database.ContactMessage](db.Where("id = ?", q.MessageId).Limit(1))
}

// raw goes straight to database/sql so that $n placeholders reach the driver
// untouched; gorm only rewrites ? bind variables.
func (b *SQLBackend) raw(ctx context.Context, q RawSQL) (*Result, error) {
	sqlDB, err := b.db.DB()
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.QueryContext(ctx, q.Text, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("error running raw query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	out := make([]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[col] = string(raw)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &Result{Rows: out, RowCount: len(out)}, nil
}

func classifySQLError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "28":
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
