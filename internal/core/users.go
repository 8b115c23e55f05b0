package core

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

func withoutSecrets(user database.User) database.User {
	user.PasswordHash = ""
	return user
}

func newUser(email, name string, now func() time.Time) database.User {
	t := now()
	return database.User{
		Id:        uuid.New(),
		Email:     strings.TrimSpace(email),
		Name:      strings.TrimSpace(name),
		IsActive:  true,
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// CreateUser inserts the user or renames the existing account with that email.
func (s *Service) CreateUser(ctx context.Context, email, name string) (database.User, error) {
	if err := requireFields("Email and name are required", email, name); err != nil {
		return database.User{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return database.User{}, err
	}

	user, err := storage.One[database.User](ctx, s.backend, storage.UpsertUser{User: newUser(email, name, s.now)})
	if err != nil {
		return database.User{}, fmt.Errorf("error creating user: %w", err)
	}
	return withoutSecrets(user), nil
}

// GetOrCreateUser returns the account for email, creating it if needed. It is
// a single atomic upsert, so concurrent calls agree on one user.
func (s *Service) GetOrCreateUser(ctx context.Context, email, name string) (database.User, error) {
	if err := requireFields("Email and name are required", email, name); err != nil {
		return database.User{}, err
	}

	user, err := storage.One[database.User](ctx, s.backend, storage.EnsureUser{User: newUser(email, name, s.now)})
	if err != nil {
		return database.User{}, fmt.Errorf("error getting or creating user: %w", err)
	}
	return withoutSecrets(user), nil
}

func (s *Service) SignUp(ctx context.Context, name, email, password string) (database.User, error) {
	if err := requireFields("Name, email, and password are required", name, email, password); err != nil {
		return database.User{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return database.User{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return database.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return database.User{}, fmt.Errorf("error hashing password: %w", err)
	}

	user := newUser(email, name, s.now)
	user.PasswordHash = string(hash)

	created, err := storage.One[database.User](ctx, s.backend, storage.InsertUser{User: user})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return database.User{}, ErrEmailTaken
		}
		return database.User{}, fmt.Errorf("error creating user: %w", err)
	}

	if _, err := s.backend.Exec(ctx, storage.InsertUserPreferences{Preferences: defaultPreferences(created.Id, s.now())}); err != nil {
		slog.Warn("failed to create user preferences", "user_id", created.Id, "error", err)
	}

	slog.Info("user signed up", "user_id", created.Id)
	return withoutSecrets(created), nil
}

// Login checks the password and records the login time. Unknown emails,
// wrong passwords and deactivated accounts all return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (database.User, error) {
	if err := requireFields("Email and password are required", email, password); err != nil {
		return database.User{}, err
	}

	user, err := storage.One[database.User](ctx, s.backend, storage.FindUserByEmail{Email: strings.TrimSpace(email)})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return database.User{}, ErrInvalidCredentials
		}
		return database.User{}, fmt.Errorf("error finding user: %w", err)
	}

	if !user.IsActive {
		slog.Info("login attempt for deactivated account", "user_id", user.Id)
		return database.User{}, ErrInvalidCredentials
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return database.User{}, ErrInvalidCredentials
	}

	now := s.now()
	if _, err := s.backend.Exec(ctx, storage.TouchLastLogin{UserId: user.Id, At: now}); err != nil {
		slog.Warn("failed to update last login", "user_id", user.Id, "error", err)
	} else {
		user.LastLogin = &now
	}

	return withoutSecrets(user), nil
}

func (s *Service) ListUsers(ctx context.Context, limit int) ([]database.User, error) {
	users, err := storage.All[database.User](ctx, s.backend, storage.ListUsers{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	for i := range users {
		users[i] = withoutSecrets(users[i])
	}
	return users, nil
}

func defaultPreferences(userId uuid.UUID, now time.Time) database.UserPreferences {
	return database.UserPreferences{
		Id:             uuid.New(),
		UserId:         userId,
		ArrowSize:      1,
		BrainModel:     "default",
		ShowDebugInfo:  false,
		AutoHideArrows: true,
		PreferredTheme: "dark",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *Service) GetUserPreferences(ctx context.Context, userId uuid.UUID) (database.UserPreferences, error) {
	prefs, err := storage.One[database.UserPreferences](ctx, s.backend, storage.FindUserPreferences{UserId: userId})
	if err != nil {
		return database.UserPreferences{}, fmt.Errorf("error getting user preferences: %w", err)
	}
	return prefs, nil
}

func (s *Service) ListUserPreferences(ctx context.Context, limit int) ([]database.UserPreferences, error) {
	prefs, err := storage.All[database.UserPreferences](ctx, s.backend, storage.ListUserPreferences{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing user preferences: %w", err)
	}
	return prefs, nil
}
