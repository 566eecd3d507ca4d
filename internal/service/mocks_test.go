package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/mail"
	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/repository"
)

func init() {
	logger.SetOutput(io.Discard)
}

// mockAuthRepository реализует AuthRepository в памяти.
type mockAuthRepository struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]*models.Account
	sessions   map[uuid.UUID]*models.Session
	setCalls   int
	clearCalls int
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		accounts: make(map[uuid.UUID]*models.Account),
		sessions: make(map[uuid.UUID]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == account.Username {
			return &repository.ErrAccountExists{Field: "username"}
		}
		if a.Email == account.Email {
			return &repository.ErrAccountExists{Field: "email"}
		}
	}
	account.ID = uuid.New()
	account.IsActive = true
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAuthRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAuthRepository) SetPendingCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	m.setCalls++
	a.SetPendingCode(code, issuedAt)
	return nil
}

func (m *mockAuthRepository) ClearPendingCode(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	m.clearCalls++
	a.ClearPendingCode()
	return nil
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockAuthRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockAuthRepository) deleteAccount(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
}

func (m *mockAuthRepository) stored(id uuid.UUID) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

// mockMailer записывает отправленные письма.
type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// sequenceGenerator выдаёт коды по очереди.
type sequenceGenerator struct {
	codes []string
	next  int
}

func (g *sequenceGenerator) Generate() (string, error) {
	code := g.codes[g.next%len(g.codes)]
	g.next++
	return code, nil
}

// fakeClock управляемое время.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	repo    *mockAuthRepository
	mailer  *mockMailer
	clock   *fakeClock
	tokens  *TokenManager
	service *AuthService
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"482913"}
	}

	repo := newMockAuthRepository()
	mailer := new(mockMailer)
	clock := newFakeClock()

	tokens := NewTokenManager("session-secret-for-tests", "pending-secret-for-tests", time.Hour, 10*time.Minute)
	tokens.now = clock.Now

	issuer := NewOTPIssuer(repo, &sequenceGenerator{codes: codes}, mailer, IssuerOptions{AppName: "StudyHub", From: "noreply@studyhub.local"})
	issuer.now = clock.Now

	verifier := NewOTPVerifier(repo)
	verifier.now = clock.Now

	svc := NewAuthService(repo, tokens, issuer, verifier)
	svc.now = clock.Now

	return &testEnv{repo: repo, mailer: mailer, clock: clock, tokens: tokens, service: svc}
}

func (e *testEnv) signup(t *testing.T, username, role string) *models.Account {
	t.Helper()
	account, err := e.service.Signup(context.Background(), SignupInput{
		Username:        username,
		Email:           strings.ToLower(username) + "@example.com",
		Role:            role,
		Password:        "Secret123",
		PasswordConfirm: "Secret123",
	})
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	return account
}
