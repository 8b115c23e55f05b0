package storage_test

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func createBackend(t *testing.T) *storage.SQLBackend {
	t.Helper()
	db, err := database.NewInMemoryDatabase()
	require.NoError(t, err)
	backend := storage.NewSQLBackend(db)
	t.Cleanup(func() { backend.Close() }) //nolint:errcheck
	return backend
}

func newUser(email string) database.User {
	now := time.Now().UTC()
	return database.User{Id: uuid.New(), Email: email, Name: "Test User", IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func createSession(t *testing.T, backend storage.Backend, email string) (database.User, database.ChatSession) {
	t.Helper()
	ctx := context.Background()

	user, err := storage.One[database.User](ctx, backend, storage.EnsureUser{User: newUser(email)})
	require.NoError(t, err)

	now := time.Now().UTC()
	session, err := storage.One[database.ChatSession](ctx, backend, storage.InsertChatSession{
		Session: database.ChatSession{Id: uuid.New(), UserId: user.Id, Title: "New Brain Chat", IsActive: true, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	return user, session
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	first, err := storage.One[database.User](ctx, backend, storage.EnsureUser{User: newUser("a@example.com")})
	require.NoError(t, err)

	second, err := storage.One[database.User](ctx, backend, storage.EnsureUser{User: newUser("a@example.com")})
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)

	users, err := storage.All[database.User](ctx, backend, storage.ListUsers{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestInsertUserDuplicate(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	_, err := backend.Exec(ctx, storage.InsertUser{User: newUser("dup@example.com")})
	require.NoError(t, err)

	_, err = backend.Exec(ctx, storage.InsertUser{User: newUser("dup@example.com")})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestUpsertUserUpdatesName(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	original, err := storage.One[database.User](ctx, backend, storage.UpsertUser{User: newUser("up@example.com")})
	require.NoError(t, err)

	renamed := newUser("up@example.com")
	renamed.Name = "Renamed"
	updated, err := storage.One[database.User](ctx, backend, storage.UpsertUser{User: renamed})
	require.NoError(t, err)

	assert.Equal(t, original.Id, updated.Id)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestFindUserMissing(t *testing.T) {
	backend := createBackend(t)

	_, err := storage.One[database.User](context.Background(), backend, storage.FindUserByEmail{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	user, err := storage.One[database.User](ctx, backend, storage.InsertUser{User: newUser("login@example.com")})
	require.NoError(t, err)
	assert.Nil(t, user.LastLogin)

	at := time.Now().UTC().Truncate(time.Second)
	res, err := backend.Exec(ctx, storage.TouchLastLogin{UserId: user.Id, At: at})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)

	user, err = storage.One[database.User](ctx, backend, storage.FindUserByID{UserId: user.Id})
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.True(t, at.Equal(*user.LastLogin))
}

func TestAppendChatMessageTouchesSession(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()
	user, session := createSession(t, backend, "chat@example.com")

	later := session.UpdatedAt.Add(time.Minute)
	msg, err := storage.One[database.ChatMessage](ctx, backend, storage.AppendChatMessage{Message: database.ChatMessage{
		Id:           uuid.New(),
		SessionId:    session.Id,
		Role:         database.RoleAssistant,
		Content:      "The Frontal lobe is responsible for \"think\".",
		BrainRegions: datatypes.JSON(`["Frontal"]`),
		CreatedAt:    later,
	}})
	require.NoError(t, err)
	assert.Equal(t, session.Id, msg.SessionId)

	sessions, err := storage.All[database.ChatSession](ctx, backend, storage.ListChatSessions{UserId: uuid.NullUUID{UUID: user.Id, Valid: true}})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, later.Equal(sessions[0].UpdatedAt))
}

func TestAppendChatMessageMissingSession(t *testing.T) {
	backend := createBackend(t)

	_, err := backend.Exec(context.Background(), storage.AppendChatMessage{Message: database.ChatMessage{
		Id:           uuid.New(),
		SessionId:    uuid.New(),
		Role:         database.RoleUser,
		Content:      "think",
		BrainRegions: datatypes.JSON(`[]`),
		CreatedAt:    time.Now().UTC(),
	}})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListChatMessages(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()
	_, session := createSession(t, backend, "list@example.com")
	_, other := createSession(t, backend, "other@example.com")

	base := time.Now().UTC()
	for i, content := range []string{"run", "The Frontal & Parietal lobes are responsible for \"run\"."} {
		role := database.RoleUser
		if i == 1 {
			role = database.RoleAssistant
		}
		_, err := backend.Exec(ctx, storage.AppendChatMessage{Message: database.ChatMessage{
			Id: uuid.New(), SessionId: session.Id, Role: role, Content: content,
			BrainRegions: datatypes.JSON(`[]`), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}})
		require.NoError(t, err)
	}
	_, err := backend.Exec(ctx, storage.AppendChatMessage{Message: database.ChatMessage{
		Id: uuid.New(), SessionId: other.Id, Role: database.RoleUser, Content: "see",
		BrainRegions: datatypes.JSON(`[]`), CreatedAt: base.Add(time.Hour),
	}})
	require.NoError(t, err)

	bySession, err := storage.All[database.ChatMessage](ctx, backend, storage.ListChatMessages{SessionId: uuid.NullUUID{UUID: session.Id, Valid: true}})
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	assert.Equal(t, "run", bySession[0].Content)
	require.NotNil(t, bySession[0].UserId)
	assert.Equal(t, session.UserId, *bySession[0].UserId)
	require.NotNil(t, bySession[0].Title)
	assert.Equal(t, "New Brain Chat", *bySession[0].Title)

	byEmail, err := storage.All[database.ChatMessage](ctx, backend, storage.ListChatMessages{UserEmail: "list@example.com"})
	require.NoError(t, err)
	require.Len(t, byEmail, 2)
	assert.Equal(t, database.RoleAssistant, byEmail[0].Role)

	all, err := storage.All[database.ChatMessage](ctx, backend, storage.ListChatMessages{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "see", all[0].Content)
}

func TestRecordBrainActivityUpdatesStats(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()
	user, session := createSession(t, backend, "stats@example.com")

	record := func(regions string, duration *int64) {
		_, err := backend.Exec(ctx, storage.RecordBrainActivity{Activity: database.BrainActivity{
			Id:           uuid.New(),
			SessionId:    session.Id,
			BrainRegions: datatypes.JSON(regions),
			ActivityType: "brain_query",
			DurationMs:   duration,
			ArrowCount:   2,
			CreatedAt:    time.Now().UTC(),
		}})
		require.NoError(t, err)
	}

	d1, d2 := int64(1500), int64(500)
	record(`["Frontal","Parietal"]`, &d1)
	record(`["Frontal"]`, &d2)
	record(`["Occipital"]`, nil)

	stats, err := storage.All[database.BrainRegionStats](ctx, backend, storage.ListRegionStats{UserId: uuid.NullUUID{UUID: user.Id, Valid: true}})
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "Frontal", stats[0].RegionName)
	assert.EqualValues(t, 2, stats[0].ActivationCount)
	assert.EqualValues(t, 2000, stats[0].TotalDurationMs)

	// Equal counts fall back to region name order.
	assert.Equal(t, "Occipital", stats[1].RegionName)
	assert.EqualValues(t, 0, stats[1].TotalDurationMs)
	assert.Equal(t, "Parietal", stats[2].RegionName)
	assert.EqualValues(t, 1500, stats[2].TotalDurationMs)

	activities, err := storage.All[database.BrainActivity](ctx, backend, storage.ListBrainActivities{SessionId: uuid.NullUUID{UUID: session.Id, Valid: true}})
	require.NoError(t, err)
	assert.Len(t, activities, 3)
}

func TestRecordBrainActivityMissingSessionWritesNothing(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	_, err := backend.Exec(ctx, storage.RecordBrainActivity{Activity: database.BrainActivity{
		Id:           uuid.New(),
		SessionId:    uuid.New(),
		BrainRegions: datatypes.JSON(`["Temporal"]`),
		ActivityType: "brain_query",
		CreatedAt:    time.Now().UTC(),
	}})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	stats, err := storage.All[database.BrainRegionStats](ctx, backend, storage.ListRegionStats{})
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestContactMessages(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	user, err := storage.One[database.User](ctx, backend, storage.InsertUser{User: newUser("contact@example.com")})
	require.NoError(t, err)

	now := time.Now().UTC()
	withUser, err := storage.One[database.ContactMessage](ctx, backend, storage.InsertContactMessage{Message: database.ContactMessage{
		Id: uuid.New(), UserId: uuid.NullUUID{UUID: user.Id, Valid: true}, Name: "Test User", Email: user.Email,
		Subject: "General Inquiry", Message: "hello", CreatedAt: now, UpdatedAt: now,
	}})
	require.NoError(t, err)

	_, err = backend.Exec(ctx, storage.InsertContactMessage{Message: database.ContactMessage{
		Id: uuid.New(), Name: "Anon", Email: "anon@example.com",
		Subject: "Bug", Message: "broken", CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
	}})
	require.NoError(t, err)

	all, err := storage.All[database.ContactMessage](ctx, backend, storage.ListContactMessages{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anon", all[0].Name)
	assert.Nil(t, all[0].UserName)
	require.NotNil(t, all[1].UserName)
	assert.Equal(t, "Test User", *all[1].UserName)

	read, err := storage.One[database.ContactMessage](ctx, backend, storage.MarkContactMessageRead{MessageId: withUser.Id, Read: true, At: now})
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := storage.All[database.ContactMessage](ctx, backend, storage.ListContactMessages{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Anon", unread[0].Name)

	_, err = backend.Exec(ctx, storage.MarkContactMessageRead{MessageId: uuid.New(), Read: true, At: now})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserPreferences(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	user, err := storage.One[database.User](ctx, backend, storage.InsertUser{User: newUser("prefs@example.com")})
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = backend.Exec(ctx, storage.InsertUserPreferences{Preferences: database.UserPreferences{
		Id: uuid.New(), UserId: user.Id, ArrowSize: 1, BrainModel: "default", AutoHideArrows: true, PreferredTheme: "dark", CreatedAt: now, UpdatedAt: now,
	}})
	require.NoError(t, err)

	prefs, err := storage.One[database.UserPreferences](ctx, backend, storage.FindUserPreferences{UserId: user.Id})
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs.PreferredTheme)

	_, err = backend.Exec(ctx, storage.InsertUserPreferences{Preferences: database.UserPreferences{
		Id: uuid.New(), UserId: user.Id, ArrowSize: 1, BrainModel: "default", PreferredTheme: "light", CreatedAt: now, UpdatedAt: now,
	}})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestRawSQL(t *testing.T) {
	backend := createBackend(t)
	ctx := context.Background()

	_, err := backend.Exec(ctx, storage.InsertUser{User: newUser("raw@example.com")})
	require.NoError(t, err)

	res, err := backend.Exec(ctx, storage.RawSQL{Text: "SELECT email, name FROM users WHERE email = $1", Params: []any{"raw@example.com"}})
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)

	row, ok := res.Rows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "raw@example.com", row["email"])
	assert.Equal(t, "Test User", row["name"])

	res, err = backend.Exec(ctx, storage.RawSQL{Text: "SELECT email FROM users WHERE email = $1", Params: []any{"missing@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowCount)
}

func TestSQLBackendPing(t *testing.T) {
	backend := createBackend(t)
	assert.NoError(t, backend.Ping(context.Background()))
	assert.Equal(t, storage.ModeLocal, backend.Mode())
}
