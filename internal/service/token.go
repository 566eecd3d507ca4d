package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/studyhub-auth/internal/models"
)

const (
	purposePending = "otp_pending"
	purposeSession = "session"
)

var errWrongPurpose = errors.New("token: неверное назначение токена")

// PendingAuthToken подтверждает, что пароль проверен и аккаунт ждёт ввода кода.
type PendingAuthToken struct {
	Value     string
	ExpiresAt time.Time
}

// SessionToken токен аутентифицированной сессии.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

// SessionClaims данные, извлечённые из токена сессии.
type SessionClaims struct {
	AccountID uuid.UUID
	SessionID uuid.UUID
	Role      string
}

type tokenClaims struct {
	Purpose string `json:"purpose"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager отвечает за выпуск и проверку JWT сессии и ожидания кода.
type TokenManager struct {
	sessionSecret []byte
	pendingSecret []byte
	sessionTTL    time.Duration
	pendingTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(sessionSecret, pendingSecret string, sessionTTL, pendingTTL time.Duration) *TokenManager {
	return &TokenManager{
		sessionSecret: []byte(sessionSecret),
		pendingSecret: []byte(pendingSecret),
		sessionTTL:    sessionTTL,
		pendingTTL:    pendingTTL,
		now:           time.Now,
	}
}

// SessionTTL время жизни аутентифицированной сессии.
func (m *TokenManager) SessionTTL() time.Duration {
	return m.sessionTTL
}

// PendingTTL время жизни токена ожидания кода.
func (m *TokenManager) PendingTTL() time.Duration {
	return m.pendingTTL
}

// IssuePending выпускает токен ожидания второго фактора для аккаунта.
func (m *TokenManager) IssuePending(accountID uuid.UUID) (PendingAuthToken, error) {
	now := m.now()
	exp := now.Add(m.pendingTTL)

	claims := tokenClaims{
		Purpose: purposePending,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.pendingSecret)
	if err != nil {
		return PendingAuthToken{}, err
	}

	return PendingAuthToken{Value: value, ExpiresAt: exp}, nil
}

// ParsePending проверяет токен ожидания и возвращает идентификатор аккаунта.
func (m *TokenManager) ParsePending(token string) (uuid.UUID, error) {
	claims, err := m.parse(token, m.pendingSecret, purposePending)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// IssueSession выпускает токен сессии, привязанный к записи user_sessions.
func (m *TokenManager) IssueSession(account *models.Account, sessionID uuid.UUID, exp time.Time) (SessionToken, error) {
	claims := tokenClaims{
		Purpose: purposeSession,
		Role:    account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			ID:        sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.sessionSecret)
	if err != nil {
		return SessionToken{}, err
	}

	return SessionToken{Value: value, ExpiresAt: exp}, nil
}

// ParseSession проверяет токен сессии.
func (m *TokenManager) ParseSession(token string) (*SessionClaims, error) {
	claims, err := m.parse(token, m.sessionSecret, purposeSession)
	if err != nil {
		return nil, err
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, err
	}

	return &SessionClaims{AccountID: accountID, SessionID: sessionID, Role: claims.Role}, nil
}

func (m *TokenManager) parse(token string, secret []byte, purpose string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Purpose != purpose {
		return nil, errWrongPurpose
	}

	return claims, nil
}
