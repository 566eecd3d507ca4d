package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/mail"
	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
	"github.com/ignatzorin/studyhub-auth/internal/repository"
)

// OTPTTL срок действия кода, отсчитывается от момента выпуска.
const OTPTTL = 5 * time.Minute

const (
	otpMin = 100000
	otpMax = 999999
)

// CodeGenerator выдаёт одноразовые коды.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator выбирает код равномерно из [100000, 999999] через crypto/rand.
type RandomCodeGenerator struct{}

// Generate возвращает строку ровно из шести цифр.
func (RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("otp: генерация кода: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// OTPStore хранилище полей кода в аккаунте.
type OTPStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	SetPendingCode(ctx context.Context, id uuid.UUID, code string, issuedAt time.Time) error
	ClearPendingCode(ctx context.Context, id uuid.UUID) error
}

// IssuerOptions параметры письма и диагностического вывода.
type IssuerOptions struct {
	AppName  string
	From     string
	DebugLog bool
}

// OTPIssuer генерирует, сохраняет и отправляет код входа.
type OTPIssuer struct {
	store  OTPStore
	codes  CodeGenerator
	mailer mail.Mailer
	opts   IssuerOptions
	now    func() time.Time
}

// NewOTPIssuer создаёт выпускающий сервис.
func NewOTPIssuer(store OTPStore, codes CodeGenerator, mailer mail.Mailer, opts IssuerOptions) *OTPIssuer {
	return &OTPIssuer{
		store:  store,
		codes:  codes,
		mailer: mailer,
		opts:   opts,
		now:    time.Now,
	}
}

// Issue выпускает новый код для аккаунта и отправляет его на email.
// Ошибка доставки возвращается как ErrNotificationDelivery уже после сохранения
// кода: сохранённый код не откатывается и остаётся действительным.
func (i *OTPIssuer) Issue(ctx context.Context, account *models.Account) error {
	code, err := i.codes.Generate()
	if err != nil {
		return err
	}

	issuedAt := i.now()
	if err := i.store.SetPendingCode(ctx, account.ID, code, issuedAt); err != nil {
		return fmt.Errorf("otp issuer: %w", err)
	}
	account.SetPendingCode(code, issuedAt)

	fields := logrus.Fields{
		"account_id": account.ID,
		"email":      account.Email,
	}

	if i.opts.DebugLog {
		logger.Log.WithFields(fields).WithField("otp", code).Warn("otp issuer: код выдан (OTP_DEBUG_LOG включён)")
	}

	msg := mail.OTPMessage(i.opts.AppName, i.opts.From, account.Email, code, OTPTTL)
	if err := i.mailer.Send(ctx, msg); err != nil {
		logger.Log.WithFields(fields).WithField("error", err.Error()).Error("otp issuer: не удалось отправить код")
		return apperror.Wrap(err, apperror.ErrCodeDeliveryFailure, apperror.ErrNotificationDelivery.Message)
	}

	logger.Log.WithFields(fields).Info("otp issuer: код отправлен")
	return nil
}

// VerifyOutcome результат проверки кода.
type VerifyOutcome int

const (
	VerifyNoSession VerifyOutcome = iota
	VerifyMismatch
	VerifyExpired
	VerifyValid
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyValid:
		return "valid"
	case VerifyMismatch:
		return "mismatch"
	case VerifyExpired:
		return "expired"
	default:
		return "no_session"
	}
}

// Err возвращает ошибку приложения, соответствующую неуспешному исходу.
func (o VerifyOutcome) Err() error {
	switch o {
	case VerifyValid:
		return nil
	case VerifyMismatch:
		return apperror.ErrCodeMismatch
	case VerifyExpired:
		return apperror.ErrCodeExpired
	default:
		return apperror.ErrNoPendingSession
	}
}

// OTPVerifier проверяет введённый код против сохранённого в аккаунте.
type OTPVerifier struct {
	store OTPStore
	now   func() time.Time
}

// NewOTPVerifier создаёт проверяющий сервис.
func NewOTPVerifier(store OTPStore) *OTPVerifier {
	return &OTPVerifier{store: store, now: time.Now}
}

// Verify сверяет код. При неверном коде состояние аккаунта не меняется,
// при истёкшем или верном коде поля кода очищаются.
func (v *OTPVerifier) Verify(ctx context.Context, accountID uuid.UUID, submitted string) (VerifyOutcome, *models.Account, error) {
	account, err := v.store.GetByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return VerifyNoSession, nil, nil
	}
	if err != nil {
		return VerifyNoSession, nil, fmt.Errorf("otp verifier: %w", err)
	}

	// Код уже использован или сброшен: ссылка на ожидание устарела.
	if !account.HasPendingCode() {
		return VerifyNoSession, account, nil
	}

	submitted = strings.TrimSpace(submitted)
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(*account.PendingCode)) != 1 {
		return VerifyMismatch, account, nil
	}

	outcome := VerifyValid
	if v.now().Sub(*account.CodeIssuedAt) >= OTPTTL {
		outcome = VerifyExpired
	}

	if err := v.store.ClearPendingCode(ctx, account.ID); err != nil {
		return VerifyNoSession, nil, fmt.Errorf("otp verifier: %w", err)
	}
	account.ClearPendingCode()

	return outcome, account, nil
}
