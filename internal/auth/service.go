package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpilot/backend/internal/cache/redis"
	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
	"github.com/classpilot/backend/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidRole        = errors.New("role must be teacher or student")
)

// UserStore is the subset of the sqlite client the auth service needs.
type UserStore interface {
	InsertUser(user *models.User) error
	GetUser(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
}

// SessionStore holds login tokens with a TTL.
type SessionStore interface {
	SetSession(ctx context.Context, token string, session redis.Session, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (redis.Session, bool, error)
	DeleteSession(ctx context.Context, token string) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	sessionTTL time.Duration
}

func NewService(users UserStore, sessions SessionStore, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 72 * time.Hour
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}
}

func (s *Service) Register(ctx context.Context, email, password, name, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if role != models.RoleTeacher && role != models.RoleStudent {
		return nil, ErrInvalidRole
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := s.users.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sqlite.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.users.InsertUser(user); err != nil {
		return nil, err
	}

	logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// Login verifies the password and mints a session token. The token is the
// cookie value; only its hash-free uuid lives server-side in the store.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(email)
	if errors.Is(err, sqlite.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token := uuid.New().String()
	session := redis.Session{
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.SetSession(ctx, token, session, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	metrics.ActiveSessions.Inc()
	logger.Info("User logged in", zap.String("user_id", user.ID))
	return token, user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	return nil
}

// Authenticate resolves a session token to its user. A missing or expired
// token returns (nil, false, nil); errors are store failures only.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, bool, error) {
	if token == "" {
		return nil, false, nil
	}

	session, ok, err := s.sessions.GetSession(ctx, token)
	if err != nil || !ok {
		return nil, false, err
	}

	user, err := s.users.GetUser(session.UserID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
