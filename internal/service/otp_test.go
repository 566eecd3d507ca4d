package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/studyhub-auth/internal/logger"
	"github.com/ignatzorin/studyhub-auth/internal/mail"
	"github.com/ignatzorin/studyhub-auth/internal/models"
	"github.com/ignatzorin/studyhub-auth/internal/pkg/apperror"
)

func TestRandomCodeGenerator_SixDigits(t *testing.T) {
	gen := RandomCodeGenerator{}
	seen := make(map[string]struct{})
	var below, above int

	for i := 0; i < 10000; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)

		if n < 550000 {
			below++
		} else {
			above++
		}
		seen[code] = struct{}{}
	}

	// Грубая проверка равномерности.
	assert.Greater(t, below, 4000)
	assert.Greater(t, above, 4000)
	assert.Greater(t, len(seen), 9000)
}

func TestOTPIssuer_Issue(t *testing.T) {
	env := newTestEnv(t, "123456")
	account := env.signup(t, "anna", models.RoleStudent)

	var sent mail.Message
	env.mailer.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(mail.Message)
	}).Return(nil)

	require.NoError(t, env.service.issuer.Issue(context.Background(), account))

	assert.Equal(t, "123456", *account.PendingCode)
	assert.Equal(t, env.clock.Now(), *account.CodeIssuedAt)
	assert.Equal(t, 1, env.repo.setCalls)
	assert.Equal(t, []string{"anna@example.com"}, sent.To)
	assert.Contains(t, sent.Body, "123456")
	assert.Contains(t, sent.Subject, "StudyHub")
}

func TestOTPIssuer_ReissueOverwrites(t *testing.T) {
	env := newTestEnv(t, "111111", "222222")
	account := env.signup(t, "anna", models.RoleStudent)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, env.service.issuer.Issue(context.Background(), account))
	env.clock.Advance(OTPTTL / 2)
	require.NoError(t, env.service.issuer.Issue(context.Background(), account))

	stored := env.repo.stored(account.ID)
	assert.Equal(t, "222222", *stored.PendingCode)
	assert.Equal(t, env.clock.Now(), *stored.CodeIssuedAt)
}

func TestOTPIssuer_DeliveryFailureKeepsCode(t *testing.T) {
	env := newTestEnv(t, "123456")
	account := env.signup(t, "anna", models.RoleStudent)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("dial tcp: timeout"))

	err := env.service.issuer.Issue(context.Background(), account)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotificationDelivery)
	assert.Equal(t, apperror.ErrCodeDeliveryFailure, apperror.CodeOf(err))

	stored := env.repo.stored(account.ID)
	require.True(t, stored.HasPendingCode())
	assert.Equal(t, "123456", *stored.PendingCode)
}

func TestOTPIssuer_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	ghost := &models.Account{ID: uuid.New(), Email: "ghost@example.com"}
	err := env.service.issuer.Issue(context.Background(), ghost)

	assert.Error(t, err)
	assert.False(t, ghost.HasPendingCode())
	env.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestOTPIssuer_DebugLog(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(io.Discard) })

	env := newTestEnv(t, "654321")
	account := env.signup(t, "anna", models.RoleStudent)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, env.service.issuer.Issue(context.Background(), account))
	assert.NotContains(t, buf.String(), "654321")

	env.service.issuer.opts.DebugLog = true
	buf.Reset()
	require.NoError(t, env.service.issuer.Issue(context.Background(), account))
	assert.Contains(t, buf.String(), "654321")
}

func TestOTPVerifier_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		submitted   string
		want        VerifyOutcome
		wantCleared bool
	}{
		{name: "valid", submitted: "482913", want: VerifyValid, wantCleared: true},
		{name: "mismatch", submitted: "482914", want: VerifyMismatch, wantCleared: false},
		{name: "empty", submitted: "", want: VerifyMismatch, wantCleared: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "482913")
			account := env.signup(t, "anna", models.RoleStudent)
			env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
			require.NoError(t, env.service.issuer.Issue(context.Background(), account))

			outcome, got, err := env.service.verifier.Verify(context.Background(), account.ID, tt.submitted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			require.NotNil(t, got)

			stored := env.repo.stored(account.ID)
			assert.Equal(t, tt.wantCleared, !stored.HasPendingCode())
			assert.True(t, stored.PendingCodeConsistent())
		})
	}
}

func TestOTPVerifier_ExpiryBoundary(t *testing.T) {
	env := newTestEnv(t, "482913")
	account := env.signup(t, "anna", models.RoleStudent)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, env.service.issuer.Issue(context.Background(), account))

	env.clock.Advance(OTPTTL)

	outcome, _, err := env.service.verifier.Verify(context.Background(), account.ID, "482913")
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, outcome)
	assert.False(t, env.repo.stored(account.ID).HasPendingCode())
}

func TestOTPVerifier_MismatchAfterExpiryKeepsState(t *testing.T) {
	env := newTestEnv(t, "482913")
	account := env.signup(t, "anna", models.RoleStudent)
	env.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, env.service.issuer.Issue(context.Background(), account))

	env.clock.Advance(OTPTTL * 2)

	outcome, _, err := env.service.verifier.Verify(context.Background(), account.ID, "000000")
	require.NoError(t, err)
	assert.Equal(t, VerifyMismatch, outcome)
	assert.True(t, env.repo.stored(account.ID).HasPendingCode())
}

func TestOTPVerifier_NoSession(t *testing.T) {
	env := newTestEnv(t)
	account := env.signup(t, "anna", models.RoleStudent)

	outcome, _, err := env.service.verifier.Verify(context.Background(), account.ID, "482913")
	require.NoError(t, err)
	assert.Equal(t, VerifyNoSession, outcome)

	outcome, got, err := env.service.verifier.Verify(context.Background(), uuid.New(), "482913")
	require.NoError(t, err)
	assert.Equal(t, VerifyNoSession, outcome)
	assert.Nil(t, got)
}

func TestVerifyOutcome_Err(t *testing.T) {
	assert.NoError(t, VerifyValid.Err())
	assert.ErrorIs(t, VerifyMismatch.Err(), apperror.ErrCodeMismatch)
	assert.ErrorIs(t, VerifyExpired.Err(), apperror.ErrCodeExpired)
	assert.ErrorIs(t, VerifyNoSession.Err(), apperror.ErrNoPendingSession)
	assert.Equal(t, "expired", VerifyExpired.String())
}
