package models

import (
	"time"

	"github.com/google/uuid"
)

// Account описывает учётную запись пользователя платформы.
// PendingCode и CodeIssuedAt заполняются и очищаются только вместе.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	Role         string     `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	PendingCode  *string    `db:"pending_code" json:"-"`
	CodeIssuedAt *time.Time `db:"code_issued_at" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTeacher сообщает, принадлежит ли аккаунт преподавателю.
func (a *Account) IsTeacher() bool {
	return a.Role == RoleTeacher
}

// HasPendingCode сообщает, ожидает ли аккаунт ввода одноразового кода.
func (a *Account) HasPendingCode() bool {
	return a.PendingCode != nil && a.CodeIssuedAt != nil
}

// SetPendingCode записывает код и момент его выпуска.
func (a *Account) SetPendingCode(code string, issuedAt time.Time) {
	a.PendingCode = &code
	a.CodeIssuedAt = &issuedAt
}

// ClearPendingCode сбрасывает код вместе с временем выпуска.
func (a *Account) ClearPendingCode() {
	a.PendingCode = nil
	a.CodeIssuedAt = nil
}

// PendingCodeConsistent проверяет, что поля кода либо оба пусты, либо оба заданы.
func (a *Account) PendingCodeConsistent() bool {
	return (a.PendingCode == nil) == (a.CodeIssuedAt == nil)
}

// Session представляет сохранённую аутентифицированную сессию.
type Session struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	UserAgent *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
