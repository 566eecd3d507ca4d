package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
	"github.com/ignatzorin/studyhub-auth/internal/repository"
	"github.com/ignatzorin/studyhub-auth/internal/validation"
)

// Пути стартовых страниц по ролям.
const (
	TeacherLandingPath = "/teacher/dashboard"
	StudentLandingPath = "/student/dashboard"
)

// LandingPath возвращает стартовую страницу для роли.
// Единое правило для входа, регистрации и подтверждения кода.
func LandingPath(role string) string {
	if role == models.RoleTeacher {
		return TeacherLandingPath
	}
	return StudentLandingPath
}

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	OTPStore
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// AuthService инкапсулирует регистрацию, вход по паролю и второй фактор.
type AuthService struct {
	repo     AuthRepository
	tokens   *TokenManager
	issuer   *OTPIssuer
	verifier *OTPVerifier
	now      func() time.Time
}

// SignupInput содержит данные формы регистрации.
type SignupInput = validation.SignupForm

// LoginInput содержит данные для входа.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult итог проверки пароля.
// DeliveryErr заполнен, если письмо с кодом не ушло; вход при этом продолжается.
type LoginResult struct {
	Account     *models.Account
	Pending     PendingAuthToken
	DeliveryErr error
}

// SessionMeta сведения о клиенте для записи сессии.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// VerifyResult итог успешного подтверждения кода.
type VerifyResult struct {
	Account *models.Account
	Session SessionToken
	Landing string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokens *TokenManager, issuer *OTPIssuer, verifier *OTPVerifier) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		issuer:   issuer,
		verifier: verifier,
		now:      time.Now,
	}
}

// Signup создаёт новый аккаунт. Ошибки формы возвращаются как validation.FieldErrors.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if errs := validation.ValidateSignup(in); errs != nil {
		return nil, errs
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	account := &models.Account{
		Username:     in.Username,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: string(passHash),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		var exists *repository.ErrAccountExists
		if errors.As(err, &exists) {
			return nil, validation.FieldErrors{exists.Field: "уже используется другим аккаунтом"}
		}
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"role":       account.Role,
	}).Info("auth service: аккаунт создан")

	return account, nil
}

// Login проверяет пароль, выпускает токен ожидания и отправляет код.
// Неизвестное имя и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	account, err := s.repo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	pending, err := s.tokens.IssuePending(account.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: токен ожидания: %w", err)
	}

	result := &LoginResult{Account: account, Pending: pending}

	if err := s.issuer.Issue(ctx, account); err != nil {
		if !errors.Is(err, apperror.ErrNotificationDelivery) {
			return nil, err
		}
		result.DeliveryErr = err
	}

	return result, nil
}

// PendingAccount возвращает аккаунт, ожидающий ввода кода.
func (s *AuthService) PendingAccount(ctx context.Context, pendingToken string) (*models.Account, error) {
	accountID, err := s.tokens.ParsePending(pendingToken)
	if err != nil {
		return nil, apperror.ErrNoPendingSession
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.ErrNoPendingSession
	}
	if err != nil {
		return nil, err
	}
	if !account.HasPendingCode() {
		return nil, apperror.ErrNoPendingSession
	}

	return account, nil
}

// VerifyOTP проверяет код и при успехе создаёт аутентифицированную сессию.
func (s *AuthService) VerifyOTP(ctx context.Context, pendingToken, code string, meta SessionMeta) (*VerifyResult, error) {
	accountID, err := s.tokens.ParsePending(pendingToken)
	if err != nil {
		return nil, apperror.ErrNoPendingSession
	}

	outcome, account, err := s.verifier.Verify(ctx, accountID, code)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"account_id": accountID,
		"outcome":    outcome.String(),
	}
	if outcome != VerifyValid {
		logger.Log.WithFields(fields).Warn("auth service: код не принят")
		return nil, outcome.Err()
	}

	session, err := s.finalize(ctx, account, meta)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(fields).Info("auth service: вход подтверждён")

	return &VerifyResult{
		Account: account,
		Session: session,
		Landing: LandingPath(account.Role),
	}, nil
}

// finalize создаёт запись сессии и подписывает токен.
func (s *AuthService) finalize(ctx context.Context, account *models.Account, meta SessionMeta) (SessionToken, error) {
	session := &models.Session{
		AccountID: account.ID,
		ExpiresAt: s.now().Add(s.tokens.SessionTTL()),
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	if meta.IP != "" {
		session.IPAddress = &meta.IP
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return SessionToken{}, err
	}

	token, err := s.tokens.IssueSession(account, session.ID, session.ExpiresAt)
	if err != nil {
		return SessionToken{}, err
	}

	if err := s.repo.UpdateLastLoginAt(ctx, account.ID); err != nil {
		// Не критично для входа.
		logger.Log.WithFields(logrus.Fields{
			"account_id": account.ID,
			"error":      err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	return token, nil
}

// Authenticate возвращает аккаунт по токену сессии.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*models.Account, error) {
	claims, err := s.tokens.ParseSession(sessionToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "требуется авторизация")
	}

	session, err := s.repo.GetSession(ctx, claims.SessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "сессия завершена")
	}
	if err != nil {
		return nil, err
	}
	if session.AccountID != claims.AccountID {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "требуется авторизация")
	}

	account, err := s.repo.GetByID(ctx, claims.AccountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "требуется авторизация")
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "аккаунт заблокирован")
	}

	return account, nil
}

// Logout завершает сессию. Недействительный токен игнорируется.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	claims, err := s.tokens.ParseSession(sessionToken)
	if err != nil {
		return nil
	}

	return s.repo.DeleteSession(ctx, claims.SessionID)
}
