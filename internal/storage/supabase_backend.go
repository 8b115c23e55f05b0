package storage

import (
	"baldsphere-backend/internal/config"
	"baldsphere-backend/internal/database"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// SupabaseBackend executes queries through Supabase's PostgREST API. Multi-row
// writes go through the Postgres functions in SupabaseSchemaSQL so they commit
// atomically.
type SupabaseBackend struct {
	client *resty.Client
}

func NewSupabaseBackend(cfg config.SupabaseConfig) *SupabaseBackend {
	key := cfg.PrivilegedKey()
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/rest/v1").
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &SupabaseBackend{client: client}
}

func (b *SupabaseBackend) Mode() Mode {
	return ModeSupabase
}

func (b *SupabaseBackend) Ping(ctx context.Context) error {
	res, err := b.client.R().SetContext(ctx).SetQueryParam("select", "id").SetQueryParam("limit", "1").Get("/users")
	return b.check("ping", res, err)
}

func (b *SupabaseBackend) Close() error {
	return nil
}

type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *postgrestError) Error() string {
	parts := []string{e.Message}
	if e.Details != "" {
		parts = append(parts, e.Details)
	}
	if e.Hint != "" {
		parts = append(parts, e.Hint)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s)", strings.Join(parts, ": "), e.Code)
	}
	return strings.Join(parts, ": ")
}

func (b *SupabaseBackend) check(op string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: supabase %s: %w", ErrConnection, op, err)
	}
	if res.IsSuccess() {
		return nil
	}

	perr := &postgrestError{}
	if jsonErr := json.Unmarshal(res.Body(), perr); jsonErr != nil || perr.Message == "" {
		perr.Message = strings.TrimSpace(string(res.Body()))
		if perr.Message == "" {
			perr.Message = res.Status()
		}
	}

	switch {
	case res.StatusCode() == http.StatusConflict || perr.Code == "23505":
		return fmt.Errorf("%w: supabase %s: %w", ErrAlreadyExists, op, perr)
	case res.StatusCode() == http.StatusUnauthorized || res.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: supabase %s: %w", ErrUnauthorized, op, perr)
	case res.StatusCode() == http.StatusNotFound && strings.HasPrefix(perr.Code, "PT"):
		return fmt.Errorf("%w: supabase %s: %w", ErrNotFound, op, perr)
	case res.StatusCode() >= 500 && res.StatusCode() != http.StatusInternalServerError:
		return fmt.Errorf("%w: supabase %s: %w", ErrConnection, op, perr)
	default:
		return fmt.Errorf("supabase %s failed with status %d: %w", op, res.StatusCode(), perr)
	}
}

func (b *SupabaseBackend) Exec(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	res, err := b.exec(ctx, q)
	if err != nil {
		slog.Error("supabase query failed", "query", q.QueryName(), "duration", time.Since(start), "error", err)
		return nil, err
	}
	slog.Debug("supabase query", "query", q.QueryName(), "duration", time.Since(start), "rows", res.RowCount)
	return res, nil
}

func eq(v any) string {
	return fmt.Sprintf("eq.%v", v)
}

func limitParam(limit, fallback int) string {
	return strconv.Itoa(limitOr(limit, fallback))
}

func (b *SupabaseBackend) exec(ctx context.Context, q Query) (*Result, error) {
	switch q := q.(type) {
	case FindUserByEmail:
		return selectRows[database.User](ctx, b, "users", map[string]string{"email": eq(q.Email), "limit": "1"})
	case FindUserByID:
		return selectRows[database.User](ctx, b, "users", map[string]string{"id": eq(q.UserId), "limit": "1"})
	case ListUsers:
		return selectRows[database.User](ctx, b, "users", map[string]string{"order": "created_at.desc", "limit": limitParam(q.Limit, defaultLimit)})
	case InsertUser:
		return insertRows[database.User](ctx, b, "users", q.User, nil, "return=representation")
	case UpsertUser:
		// Only these columns are written, so an existing row keeps its id.
		body := map[string]any{
			"email":      q.User.Email,
			"name":       q.User.Name,
			"updated_at": q.User.UpdatedAt,
		}
		if _, err := insertRows[database.User](ctx, b, "users", body, map[string]string{"on_conflict": "email", "columns": "email,name,updated_at"}, "resolution=merge-duplicates,return=minimal"); err != nil {
			return nil, err
		}
		return selectRows[database.User](ctx, b, "users", map[string]string{"email": eq(q.User.Email), "limit": "1"})
	case EnsureUser:
		if _, err := insertRows[database.User](ctx, b, "users", q.User, map[string]string{"on_conflict": "email"}, "resolution=ignore-duplicates,return=minimal"); err != nil {
			return nil, err
		}
		return selectRows[database.User](ctx, b, "users", map[string]string{"email": eq(q.User.Email), "limit": "1"})
	case TouchLastLogin:
		return updateRows[database.User](ctx, b, "users", map[string]string{"id": eq(q.UserId)}, map[string]any{"last_login": q.At})

	case InsertUserPreferences:
		return insertRows[database.UserPreferences](ctx, b, "user_preferences", q.Preferences, nil, "return=representation")
	case FindUserPreferences:
		return selectRows[database.UserPreferences](ctx, b, "user_preferences", map[string]string{"user_id": eq(q.UserId), "limit": "1"})
	case ListUserPreferences:
		return selectRows[database.UserPreferences](ctx, b, "user_preferences", map[string]string{"order": "created_at.desc", "limit": limitParam(q.Limit, defaultLimit)})

	case InsertChatSession:
		return insertRows[database.ChatSession](ctx, b, "chat_sessions", q.Session, nil, "return=representation")
	case ListChatSessions:
		if q.UserId.Valid {
			return selectRows[database.ChatSession](ctx, b, "chat_sessions", map[string]string{
				"user_id":   eq(q.UserId.UUID),
				"is_active": "eq.true",
				"order":     "updated_at.desc",
				"limit":     limitParam(q.Limit, 20),
			})
		}
		return selectRows[database.ChatSession](ctx, b, "chat_sessions", map[string]string{"order": "created_at.desc", "limit": limitParam(q.Limit, defaultLimit)})
	case AppendChatMessage:
		return rpc[database.ChatMessage](ctx, b, "append_chat_message", map[string]any{
			"p_id":            q.Message.Id,
			"p_session_id":    q.Message.SessionId,
			"p_role":          q.Message.Role,
			"p_content":       q.Message.Content,
			"p_brain_regions": jsonOrEmptyArray(q.Message.BrainRegions),
			"p_created_at":    q.Message.CreatedAt,
		})
	case ListChatMessages:
		return b.listChatMessages(ctx, q)

	case RecordBrainActivity:
		a := q.Activity
		var messageId any
		if a.MessageId.Valid {
			messageId = a.MessageId.UUID
		}
		return rpc[database.BrainActivity](ctx, b, "record_brain_activity", map[string]any{
			"p_id":            a.Id,
			"p_session_id":    a.SessionId,
			"p_message_id":    messageId,
			"p_brain_regions": jsonOrEmptyArray(a.BrainRegions),
			"p_activity_type": a.ActivityType,
			"p_duration_ms":   a.DurationMs,
			"p_arrow_count":   a.ArrowCount,
			"p_created_at":    a.CreatedAt,
		})
	case ListBrainActivities:
		params := map[string]string{"order": "created_at.desc", "limit": limitParam(q.Limit, 50)}
		if q.SessionId.Valid {
			params["session_id"] = eq(q.SessionId.UUID)
		}
		return selectRows[database.BrainActivity](ctx, b, "brain_activities", params)
	case ListRegionStats:
		params := map[string]string{"order": "activation_count.desc,region_name.asc", "limit": limitParam(q.Limit, defaultLimit)}
		if q.UserId.Valid {
			params["user_id"] = eq(q.UserId.UUID)
		}
		return selectRows[database.BrainRegionStats](ctx, b, "brain_region_stats", params)

	case InsertContactMessage:
		return insertRows[database.ContactMessage](ctx, b, "contact_messages", q.Message, nil, "return=representation")
	case ListContactMessages:
		return b.listContactMessages(ctx, q)
	case MarkContactMessageRead:
		res, err := updateRows[database.ContactMessage](ctx, b, "contact_messages", map[string]string{"id": eq(q.MessageId)}, map[string]any{"is_read": q.Read, "updated_at": q.At})
		if err != nil {
			return nil, err
		}
		if res.RowCount == 0 {
			return nil, fmt.Errorf("%w: contact message %v", ErrNotFound, q.MessageId)
		}
		return res, nil

	default:
		// Includes RawSQL: free-form SQL is never translated to table operations.
		return nil, unsupported(ModeSupabase, q)
	}
}

func jsonOrEmptyArray(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(raw)
}

func selectRows[T any](ctx context.Context, b *SupabaseBackend, table string, params map[string]string) (*Result, error) {
	var rows []T
	req := b.client.R().SetContext(ctx).SetResult(&rows).SetQueryParams(params)
	if _, ok := params["select"]; !ok {
		req.SetQueryParam("select", "*")
	}
	res, err := req.Get("/" + table)
	if err := b.check("select "+table, res, err); err != nil {
		return nil, err
	}
	return rowsOf(rows), nil
}

func insertRows[T any](ctx context.Context, b *SupabaseBackend, table string, body any, params map[string]string, prefer string) (*Result, error) {
	var rows []T
	req := b.client.R().
		SetContext(ctx).
		SetHeader("Prefer", prefer).
		SetQueryParams(params).
		SetBody(body)
	// return=minimal answers with an empty body.
	if strings.Contains(prefer, "return=representation") {
		req.SetResult(&rows)
	}
	res, err := req.Post("/" + table)
	if err := b.check("insert "+table, res, err); err != nil {
		return nil, err
	}
	return rowsOf(rows), nil
}

func updateRows[T any](ctx context.Context, b *SupabaseBackend, table string, filters map[string]string, values map[string]any) (*Result, error) {
	var rows []T
	res, err := b.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(filters).
		SetBody(values).
		SetResult(&rows).
		Patch("/" + table)
	if err := b.check("update "+table, res, err); err != nil {
		return nil, err
	}
	return rowsOf(rows), nil
}

func rpc[T any](ctx context.Context, b *SupabaseBackend, fn string, args map[string]any) (*Result, error) {
	var rows []T
	res, err := b.client.R().
		SetContext(ctx).
		SetBody(args).
		SetResult(&rows).
		Post("/rpc/" + fn)
	if err := b.check("rpc "+fn, res, err); err != nil {
		return nil, err
	}
	return rowsOf(rows), nil
}

type embeddedSession struct {
	UserId uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
}

type chatMessageRow struct {
	database.ChatMessage
	ChatSessions *embeddedSession `json:"chat_sessions"`
}

func (b *SupabaseBackend) listChatMessages(ctx context.Context, q ListChatMessages) (*Result, error) {
	params := map[string]string{"select": "*,chat_sessions(user_id,title)"}
	switch {
	case q.SessionId.Valid:
		params["session_id"] = eq(q.SessionId.UUID)
		params["order"] = "created_at.asc"
		if q.Limit > 0 {
			params["limit"] = strconv.Itoa(q.Limit)
		}
	case q.UserEmail != "":
		params["select"] = "*,chat_sessions!inner(user_id,title,users!inner(email))"
		params["chat_sessions.users.email"] = eq(q.UserEmail)
		params["order"] = "created_at.desc"
		params["limit"] = limitParam(q.Limit, defaultLimit)
	default:
		params["order"] = "created_at.desc"
		params["limit"] = limitParam(q.Limit, defaultLimit)
	}

	res, err := selectRows[chatMessageRow](ctx, b, "chat_messages", params)
	if err != nil {
		return nil, err
	}

	msgs := make([]database.ChatMessage, 0, res.RowCount)
	for _, row := range res.Rows {
		r := row.(chatMessageRow)
		msg := r.ChatMessage
		if r.ChatSessions != nil {
			userId, title := r.ChatSessions.UserId, r.ChatSessions.Title
			msg.UserId, msg.Title = &userId, &title
		}
		msgs = append(msgs, msg)
	}
	return rowsOf(msgs), nil
}

type embeddedUser struct {
	Name string `json:"name"`
}

type contactMessageRow struct {
	database.ContactMessage
	Users *embeddedUser `json:"users"`
}

func (b *SupabaseBackend) listContactMessages(ctx context.Context, q ListContactMessages) (*Result, error) {
	params := map[string]string{
		"select": "*,users(name)",
		"order":  "created_at.desc",
		"limit":  limitParam(q.Limit, 50),
	}
	if q.UnreadOnly {
		params["is_read"] = "eq.false"
	}

	res, err := selectRows[contactMessageRow](ctx, b, "contact_messages", params)
	if err != nil {
		return nil, err
	}

	msgs := make([]database.ContactMessage, 0, res.RowCount)
	for _, row := range res.Rows {
		r := row.(contactMessageRow)
		msg := r.ContactMessage
		if r.Users != nil {
			name := r.Users.Name
			msg.UserName = &name
		}
		msgs = append(msgs, msg)
	}
	return rowsOf(msgs), nil
}
