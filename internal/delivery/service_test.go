package delivery_test

import (
	"context"
	"testing"
	"time"

	"sahayak-agent/internal/delivery"
	"sahayak-agent/internal/geo"
	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"
	"sahayak-agent/internal/store"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var villageCenter = geo.Point{Lat: 28.6139, Lng: 77.2090}

// fakeLocation is a switchable location provider.
type fakeLocation struct {
	fix geo.Fix
	err error
}

func (f *fakeLocation) CurrentFix(ctx context.Context) (geo.Fix, error) {
	if f.err != nil {
		return geo.Fix{}, f.err
	}
	return f.fix, nil
}

type fixture struct {
	svc      *delivery.Service
	loc      *fakeLocation
	queue    *repositories.QueueRepository
	archived *repositories.DeliveryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	loc := &fakeLocation{fix: geo.Fix{Point: villageCenter}}
	queue := repositories.NewQueueRepository(s)
	archived := repositories.NewDeliveryRepository(s)
	svc := delivery.NewService(loc, archived, queue, 500)
	return &fixture{svc: svc, loc: loc, queue: queue, archived: archived}
}

func startSession(t *testing.T, f *fixture) string {
	t.Helper()
	status, err := f.svc.StartSession(context.Background(), delivery.StartSessionInput{
		BeneficiaryName: "Abhay Madan",
		ExpectedOTP:     "123456",
		Reference:       villageCenter,
	})
	require.NoError(t, err)
	require.Equal(t, models.DeliveryAwaitingOtp, status.State)
	return status.ID
}

func TestFullVerificationFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	// Correct OTP moves to the beneficiary scan.
	status, err := f.svc.VerifyOTP(ctx, id, "123456")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAwaitingBeneficiaryScan, status.State)

	// Scanning the asset first is rejected in place.
	status, err = f.svc.SubmitScan(ctx, id, "AST-123456")
	assert.ErrorIs(t, err, delivery.ErrTokenTypeMismatch)
	assert.Equal(t, models.DeliveryAwaitingBeneficiaryScan, status.State)

	// Beneficiary token, then asset token.
	status, err = f.svc.SubmitScan(ctx, id, "2955 3446 1658")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAwaitingAssetScan, status.State)

	status, err = f.svc.SubmitScan(ctx, id, "AST-123456")
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAwaitingGeofence, status.State)

	// Outside the fence: confirm is blocked, state unchanged.
	f.loc.fix = geo.Fix{Point: geo.Point{Lat: 28.7041, Lng: 77.1025}}
	_, err = f.svc.Confirm(ctx, id)
	assert.ErrorIs(t, err, delivery.ErrGeofenceNotPassed)

	status, err = f.svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAwaitingGeofence, status.State)
	assert.False(t, status.GeofencePassed)

	// Back inside: confirm succeeds and the record is enqueued.
	f.loc.fix = geo.Fix{Point: villageCenter}
	record, err := f.svc.Confirm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryConfirmed, record.Status)
	assert.Equal(t, "295534461658", record.BeneficiaryToken)
	assert.Equal(t, "AST-123456", record.AssetToken)
	assert.False(t, record.OTPVerifiedAt.IsZero())

	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.QueueKindDelivery, pending[0].Kind)

	archived, err := f.archived.List(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	// One-shot: the session is gone after confirmation.
	_, err = f.svc.Status(id)
	assert.ErrorIs(t, err, delivery.ErrSessionNotFound)
}

func TestOTPMismatchKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	status, err := f.svc.VerifyOTP(ctx, id, "999999")
	assert.ErrorIs(t, err, delivery.ErrOTPMismatch)
	assert.Equal(t, models.DeliveryAwaitingOtp, status.State)
	assert.Equal(t, 2, status.OTPAttemptsLeft)
}

func TestOTPAttemptsExhaustedFailsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	_, err := f.svc.VerifyOTP(ctx, id, "000001")
	assert.ErrorIs(t, err, delivery.ErrOTPMismatch)
	_, err = f.svc.VerifyOTP(ctx, id, "000002")
	assert.ErrorIs(t, err, delivery.ErrOTPMismatch)

	status, err := f.svc.VerifyOTP(ctx, id, "000003")
	assert.ErrorIs(t, err, delivery.ErrTooManyOTPAttempts)
	assert.Equal(t, models.DeliveryFailed, status.State)

	// A failed session accepts no further codes, even the right one.
	_, err = f.svc.VerifyOTP(ctx, id, "123456")
	assert.ErrorIs(t, err, delivery.ErrInvalidState)
}

func TestHOTPSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Standard base32 secret shared with the backend.
	secret := "JBSWY3DPEHPK3PXP"
	code, err := hotp.GenerateCodeCustom(secret, 7, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)

	status, err := f.svc.StartSession(ctx, delivery.StartSessionInput{
		OTPSecret:  secret,
		OTPCounter: 7,
		Reference:  villageCenter,
	})
	require.NoError(t, err)

	got, err := f.svc.VerifyOTP(ctx, status.ID, code)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAwaitingBeneficiaryScan, got.State)
}

func TestLocationUnavailableDoesNotConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	_, err := f.svc.VerifyOTP(ctx, id, "123456")
	require.NoError(t, err)
	_, err = f.svc.SubmitScan(ctx, id, "295534461658")
	require.NoError(t, err)
	_, err = f.svc.SubmitScan(ctx, id, "AST-9")
	require.NoError(t, err)

	f.loc.err = geo.ErrLocationUnavailable
	_, err = f.svc.Confirm(ctx, id)
	assert.ErrorIs(t, err, geo.ErrLocationUnavailable)

	// Distinct from a failed geofence: the session is still live and a
	// retry after the fix returns can confirm.
	f.loc.err = nil
	f.loc.fix = geo.Fix{Point: villageCenter}
	_, err = f.svc.Confirm(ctx, id)
	require.NoError(t, err)
}

func TestUnrecognizedTokenRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	_, err := f.svc.VerifyOTP(ctx, id, "123456")
	require.NoError(t, err)

	status, err := f.svc.SubmitScan(ctx, id, "garbage")
	assert.ErrorIs(t, err, delivery.ErrUnrecognizedToken)
	assert.Equal(t, models.DeliveryAwaitingBeneficiaryScan, status.State)
}

// gatedLocation holds every CurrentFix call until released, so a test
// can park one session mid-fetch.
type gatedLocation struct {
	fix     geo.Fix
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLocation) CurrentFix(ctx context.Context) (geo.Fix, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.fix, nil
}

func TestSlowConfirmDoesNotBlockOtherSessions(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	loc := &gatedLocation{
		fix:     geo.Fix{Point: villageCenter},
		entered: make(chan struct{}, 16),
		release: make(chan struct{}, 16),
	}
	svc := delivery.NewService(loc, repositories.NewDeliveryRepository(s), repositories.NewQueueRepository(s), 500)

	// Walk two sessions to the geofence step; the location probes along
	// the way are released up front.
	for i := 0; i < 4; i++ {
		loc.release <- struct{}{}
	}
	ids := make([]string, 2)
	for i, token := range []string{"295534461658", "384729105736"} {
		status, err := svc.StartSession(ctx, delivery.StartSessionInput{
			ExpectedOTP: "123456",
			Reference:   villageCenter,
		})
		require.NoError(t, err)
		ids[i] = status.ID

		_, err = svc.VerifyOTP(ctx, status.ID, "123456")
		require.NoError(t, err)
		_, err = svc.SubmitScan(ctx, status.ID, token)
		require.NoError(t, err)
		_, err = svc.SubmitScan(ctx, status.ID, "AST-77"+token[:4])
		require.NoError(t, err)
	}
	for len(loc.entered) > 0 {
		<-loc.entered
	}

	// Park the first session inside its confirmation fix.
	confirmDone := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(ctx, ids[0])
		confirmDone <- err
	}()
	<-loc.entered

	// The second session answers while the first is still fetching.
	statusDone := make(chan error, 1)
	go func() {
		_, err := svc.Status(ids[1])
		statusDone <- err
	}()
	select {
	case err := <-statusDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("status of an idle session blocked behind a confirming one")
	}

	loc.release <- struct{}{}
	require.NoError(t, <-confirmDone)
}

func TestAbandonDiscardsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := startSession(t, f)

	f.svc.Abandon(id)
	_, err := f.svc.Status(id)
	assert.ErrorIs(t, err, delivery.ErrSessionNotFound)

	// Nothing was persisted for the abandoned attempt.
	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
