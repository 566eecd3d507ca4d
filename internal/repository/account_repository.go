package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/repository/common"
)

var (
	// ErrAccountNotFound возвращается, когда аккаунт не найден.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSessionNotFound возвращается, когда сессия не найдена или истекла.
	ErrSessionNotFound = errors.New("session not found")
)

// ErrAccountExists сообщает о конфликте уникальности при регистрации.
type ErrAccountExists struct {
	Field string
}

func (e *ErrAccountExists) Error() string {
	return fmt.Sprintf("account with this %s already exists", e.Field)
}

func (e *ErrAccountExists) Is(target error) bool {
	return target == common.ErrAlreadyExists
}

const accountColumns = `id, username, email, role, password_hash, pending_code, code_issued_at, is_active, last_login_at, created_at, updated_at`

// AccountRepository отвечает за работу с таблицами accounts и user_sessions.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository создаёт экземпляр репозитория.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создаёт новый аккаунт.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (username, email, role, password_hash, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		account.Username, account.Email, account.Role, account.PasswordHash,
	).Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if constraint, ok := common.UniqueViolation(err); ok {
			return &ErrAccountExists{Field: conflictField(constraint)}
		}
		return fmt.Errorf("account repository: create %w", err)
	}

	return nil
}

// GetByID возвращает аккаунт по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return common.GetByField[models.Account](ctx, r.db, "accounts", accountColumns, "id", id, ErrAccountNotFound)
}

// GetByUsername возвращает аккаунт по имени пользователя.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return common.GetByField[models.Account](ctx, r.db, "accounts", accountColumns, "username", username, ErrAccountNotFound)
}

// SetPendingCode сохраняет одноразовый код вместе с моментом выпуска.
func (r *AccountRepository) SetPendingCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET pending_code = $2, code_issued_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, code, issuedAt)
	if err != nil {
		return fmt.Errorf("account repository: set pending code %w", err)
	}
	return common.ExpectAffected(res, ErrAccountNotFound)
}

// ClearPendingCode сбрасывает одноразовый код и время его выпуска.
func (r *AccountRepository) ClearPendingCode(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET pending_code = NULL, code_issued_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("account repository: clear pending code %w", err)
	}
	return common.ExpectAffected(res, ErrAccountNotFound)
}

// UpdateLastLoginAt обновляет время последнего входа.
func (r *AccountRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("account repository: update last login %w", err)
	}
	return nil
}

// CreateSession сохраняет аутентифицированную сессию.
func (r *AccountRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (account_id, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		session.AccountID, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("account repository: create session %w", err)
	}

	return nil
}

// GetSession возвращает действующую сессию по идентификатору.
func (r *AccountRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT id, account_id, user_agent, ip_address, expires_at, created_at
		FROM user_sessions
		WHERE id = $1 AND expires_at > NOW()
	`
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("account repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию. Отсутствие записи ошибкой не считается.
func (r *AccountRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("account repository: delete session %w", err)
	}
	return nil
}

// DeleteExpiredSessions удаляет истёкшие сессии и возвращает их число.
func (r *AccountRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("account repository: delete expired sessions %w", err)
	}
	return res.RowsAffected()
}

// conflictField определяет поле формы по имени нарушенного ограничения.
func conflictField(constraint string) string {
	if strings.Contains(constraint, "email") {
		return "email"
	}
	return "username"
}
