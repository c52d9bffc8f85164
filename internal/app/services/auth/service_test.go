package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "staybook/internal/domain/auth"
	domainuser "staybook/internal/domain/user"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*domainuser.User
	failGet error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*domainuser.User)}
}

func (f *fakeUsers) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domainuser.ErrNotFound
}

func (f *fakeUsers) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	user, ok := f.byEmail[email]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) Save(ctx context.Context, user *domainuser.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEmail[user.Email]; ok && existing.ID != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	f.byEmail[user.Email] = user
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[domainauth.Token]*domainauth.Session
	failGet  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[domainauth.Token]*domainauth.Session)}
}

func (f *fakeSessions) Save(ctx context.Context, session *domainauth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	session, ok := f.sessions[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessions) Delete(ctx context.Context, token domainauth.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type sequentialTokens struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialTokens) NewToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("token-%d", s.n), nil
}

func newTestService() (*Service, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	svc := &Service{
		Users:     users,
		Sessions:  sessions,
		Passwords: plainHasher{},
		Tokens:    &sequentialTokens{},
	}
	return svc, users, sessions
}

func TestRegisterIssuesSession(t *testing.T) {
	svc, _, sessions := newTestService()

	result, err := svc.Register(context.Background(), RegisterParams{
		Email:    "  Guest@Example.COM ",
		Name:     "Guest One",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "guest@example.com", result.User.Email)
	assert.NotEmpty(t, result.Token)

	session, err := sessions.Get(context.Background(), domainauth.Token(result.Token))
	require.NoError(t, err)
	assert.Equal(t, result.User.Email, session.Email)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "guest@example.com",
		Name:     "Guest",
		Password: "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLoginChecksCredentials(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "guest@example.com",
		Name:     "Guest",
		Password: "correct horse",
	})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		result, err := svc.Login(context.Background(), LoginParams{
			Email:    "guest@example.com",
			Password: "correct horse",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginParams{
			Email:    "guest@example.com",
			Password: "wrong",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginParams{
			Email:    "nobody@example.com",
			Password: "correct horse",
		})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogoutDropsSession(t *testing.T) {
	svc, _, sessions := newTestService()

	result, err := svc.Register(context.Background(), RegisterParams{
		Email:    "guest@example.com",
		Name:     "Guest",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), result.Token))

	_, err = sessions.Get(context.Background(), domainauth.Token(result.Token))
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.Nil(t, svc.CurrentUser(context.Background(), result.Token))
}

func TestCurrentUserResolvesViaSessionEmail(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.Register(context.Background(), RegisterParams{
		Email:    "guest@example.com",
		Name:     "Guest",
		Password: "correct horse",
	})
	require.NoError(t, err)

	user := svc.CurrentUser(context.Background(), result.Token)
	require.NotNil(t, user)
	assert.Equal(t, result.User.ID, user.ID)
}

// The gate never errors: whatever goes wrong while resolving a token, the
// caller just sees an anonymous visitor.
func TestCurrentUserFailsOpen(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		svc, _, _ := newTestService()
		assert.Nil(t, svc.CurrentUser(context.Background(), "   "))
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestService()
		assert.Nil(t, svc.CurrentUser(context.Background(), "token-does-not-exist"))
	})

	t.Run("expired session", func(t *testing.T) {
		svc, _, sessions := newTestService()
		session, err := domainauth.NewSession(domainauth.CreateSessionParams{
			Token:  "stale",
			UserID: "u1",
			Email:  "guest@example.com",
			TTL:    time.Minute,
			Now:    time.Now().Add(-time.Hour),
		})
		require.NoError(t, err)
		require.NoError(t, sessions.Save(context.Background(), session))
		assert.Nil(t, svc.CurrentUser(context.Background(), "stale"))
	})

	t.Run("session store failure", func(t *testing.T) {
		svc, _, sessions := newTestService()
		result, err := svc.Register(context.Background(), RegisterParams{
			Email:    "guest@example.com",
			Name:     "Guest",
			Password: "correct horse",
		})
		require.NoError(t, err)
		sessions.failGet = errors.New("store offline")
		assert.Nil(t, svc.CurrentUser(context.Background(), result.Token))
	})

	t.Run("user store failure", func(t *testing.T) {
		svc, users, _ := newTestService()
		result, err := svc.Register(context.Background(), RegisterParams{
			Email:    "guest@example.com",
			Name:     "Guest",
			Password: "correct horse",
		})
		require.NoError(t, err)
		users.failGet = errors.New("store offline")
		assert.Nil(t, svc.CurrentUser(context.Background(), result.Token))
	})

	t.Run("user record gone", func(t *testing.T) {
		svc, users, _ := newTestService()
		result, err := svc.Register(context.Background(), RegisterParams{
			Email:    "guest@example.com",
			Name:     "Guest",
			Password: "correct horse",
		})
		require.NoError(t, err)
		users.mu.Lock()
		delete(users.byEmail, "guest@example.com")
		users.mu.Unlock()
		assert.Nil(t, svc.CurrentUser(context.Background(), result.Token))
	})
}
