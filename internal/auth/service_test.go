package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpilot/backend/internal/cache/redis"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) InsertUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memUserStore) GetUser(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sqlite.ErrNotFound
}

func (m *memUserStore) GetUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sqlite.ErrNotFound
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]redis.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]redis.Session)}
}

func (m *memSessionStore) SetSession(_ context.Context, token string, session redis.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = session
	return nil
}

func (m *memSessionStore) GetSession(_ context.Context, token string) (redis.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	return session, ok, nil
}

func (m *memSessionStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func newTestService() *Service {
	return NewService(newMemUserStore(), newMemSessionStore(), time.Hour)
}

func TestRegisterLoginAuthenticateRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Teacher@School.test", "correct horse", "Ms. Rivera", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.test", user.Email, "emails are normalized to lower case")
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	token, loggedIn, err := svc.Login(ctx, "teacher@school.test", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	got, ok, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, svc.Logout(ctx, token))
	_, ok, err = svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "logged-out token must not authenticate")
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "kid@school.test", "password123", "Sam", models.RoleStudent)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "kid@school.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@school.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmailAndBadRole(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "kid@school.test", "password123", "Sam", models.RoleStudent)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "kid@school.test", "password456", "Sam II", models.RoleStudent)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, "admin@school.test", "password123", "Root", "admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	svc := newTestService()
	_, ok, err := svc.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}
