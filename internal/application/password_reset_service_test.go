package application

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/fintrack-auth/internal/domain/apperr"
	repo "github.com/oksasatya/fintrack-auth/internal/domain/repository"
	"github.com/oksasatya/fintrack-auth/pkg/mailer/templates"
)

var codeInMessage = regexp.MustCompile(`code is ([0-9]+)\.`)

func lastCode(t *testing.T, n *fakeNotifier) string {
	t.Helper()
	m := codeInMessage.FindStringSubmatch(n.last().Message)
	require.Len(t, m, 2, "sms should carry the code")
	return m[1]
}

func TestResetByPhoneScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")
	old, _ := f.login(t, "jane@x.com", "Secret123")

	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	sms := f.notifier.last()
	assert.Equal(t, "+33600000000", sms.To)
	code := lastCode(t, f.notifier)
	assert.Len(t, code, 6)
	assert.Equal(t, "Your password reset code is "+code+". It expires in 10 minutes.", sms.Message)

	require.NoError(t, f.reset.VerifyAndReset(ctx, code, "newpass1"))

	err := f.reset.VerifyAndReset(ctx, code, "newpass1")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "invalid or expired code", apperr.MessageOf(err))

	_, err = f.auth.Login(ctx, "jane@x.com", "Secret123")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	f.login(t, "jane@x.com", "newpass1")

	_, err = f.auth.RefreshAccessToken(ctx, old.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "reset signs out existing sessions")

	assert.Contains(t, f.emails.templates(), templates.PasswordChanged)
	assert.True(t, f.audit.has(EventResetCompleted, true))
}

func TestResetByEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "jane@x.com", "Secret123", "+33600000000")

	require.NoError(t, f.reset.RequestReset(context.Background(), ResetRequestInput{Email: " JANE@x.com "}))
	assert.Equal(t, "+33600000000", f.notifier.last().To)
}

func TestNewRequestSupersedesOldCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")

	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	first := lastCode(t, f.notifier)
	f.clock.Advance(time.Minute)
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	second := lastCode(t, f.notifier)

	err := f.reset.VerifyAndReset(ctx, first, "newpass1")
	if first != second {
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	}
	require.NoError(t, f.reset.VerifyAndReset(ctx, second, "newpass1"))
}

func TestExpiredCodeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	code := lastCode(t, f.notifier)

	f.clock.Advance(10*time.Minute + time.Second)
	err := f.reset.VerifyAndReset(ctx, code, "newpass1")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "invalid or expired code", apperr.MessageOf(err))

	n, err := f.reset.DeleteExpiredCodes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestVerifyRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "jane@x.com", "Secret123", "+33600000000")
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	code := lastCode(t, f.notifier)

	err := f.reset.VerifyAndReset(ctx, code, "short")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "password must be at least 8 characters", apperr.MessageOf(err))

	err = f.reset.VerifyAndReset(ctx, "999999x", "newpass1")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	err = f.reset.VerifyAndReset(ctx, "  ", "newpass1")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	// the weak password attempt did not burn the code, but a vanished user fails
	require.NoError(t, f.users.Delete(ctx, u.ID))
	err = f.reset.VerifyAndReset(ctx, code, "newpass1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentVerifySingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"}))
	code := lastCode(t, f.notifier)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.reset.VerifyAndReset(ctx, code, "newpass1") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRequestResetRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "nophone@x.com", "Secret123", "")
	f.register(t, "jane@x.com", "Secret123", "+33600000000")

	tests := []struct {
		name string
		in   ResetRequestInput
		kind apperr.Kind
		msg  string
	}{
		{name: "neither", in: ResetRequestInput{}, kind: apperr.KindBadRequest},
		{name: "both", in: ResetRequestInput{Email: "jane@x.com", PhoneNumber: "+33600000000"}, kind: apperr.KindBadRequest},
		{name: "unknown email", in: ResetRequestInput{Email: "who@x.com"}, kind: apperr.KindNotFound, msg: "user not found"},
		{name: "unknown phone", in: ResetRequestInput{PhoneNumber: "+33611111111"}, kind: apperr.KindNotFound},
		{name: "no phone", in: ResetRequestInput{Email: "nophone@x.com"}, kind: apperr.KindBadRequest, msg: "no phone number configured for this account"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.reset.RequestReset(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperr.MessageOf(err))
			}
		})
	}
	assert.Empty(t, f.notifier.sent)
}

func TestRequestResetDeliveryFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")

	f.notifier.undeliver = true
	f.notifier.codes = []string{"777777"}
	err := f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Equal(t, "could not deliver code to this phone number", apperr.MessageOf(err))
	_, err = f.codes.GetByCode(ctx, "777777")
	assert.ErrorIs(t, err, repo.ErrNotFound, "undelivered code is retired")
	assert.ErrorIs(t, f.reset.VerifyAndReset(ctx, "777777", "newpass12"), apperr.ErrBadRequest)

	f.notifier.undeliver = false
	f.notifier.err = errBoom
	err = f.reset.RequestReset(ctx, ResetRequestInput{PhoneNumber: "+33600000000"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.ErrorIs(t, err, errBoom)
}

func TestRequestResetRegeneratesCollidingCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "jane@x.com", "Secret123", "+33600000000")
	f.register(t, "john@x.com", "Secret123", "+33600000001")

	f.notifier.codes = []string{"111111", "111111", "222222"}
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{Email: "jane@x.com"}))
	require.NoError(t, f.reset.RequestReset(ctx, ResetRequestInput{Email: "john@x.com"}))
	assert.Equal(t, "222222", lastCode(t, f.notifier))
}
