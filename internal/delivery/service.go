// Package delivery runs the multi-step verification protocol that gates
// a physical benefit handover: OTP check, dual beneficiary/asset scan,
// and a hard geofence gate at confirmation.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"sahayak-agent/internal/geo"
	"sahayak-agent/internal/identity"
	"sahayak-agent/internal/metrics"
	"sahayak-agent/internal/models"
	"sahayak-agent/internal/repositories"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSessionNotFound    = errors.New("delivery: session not found")
	ErrInvalidState       = errors.New("delivery: operation not valid in current state")
	ErrOTPMismatch        = errors.New("delivery: otp mismatch")
	ErrTooManyOTPAttempts = errors.New("delivery: too many otp attempts")
	ErrTokenTypeMismatch  = errors.New("delivery: wrong token type for this step")
	ErrUnrecognizedToken  = errors.New("delivery: unrecognized token")
	ErrGeofenceNotPassed  = errors.New("delivery: outside the delivery geofence")
)

// DefaultMaxOTPAttempts bounds OTP retries per session before the
// session fails and a new one must be provisioned.
const DefaultMaxOTPAttempts = 3

// Asset tokens are barcodes prefixed at issuance; beneficiary tokens are
// the 12-digit identity QR on the card.
const assetTokenPrefix = "AST-"

type tokenKind int

const (
	tokenUnknown tokenKind = iota
	tokenBeneficiary
	tokenAsset
)

func classifyToken(token string) tokenKind {
	if strings.HasPrefix(strings.ToUpper(token), assetTokenPrefix) {
		return tokenAsset
	}
	if identity.IsValid(token) {
		return tokenBeneficiary
	}
	return tokenUnknown
}

// session is the one-shot in-memory state of a delivery attempt. It is
// never persisted; abandoning it leaves no partial record behind. Each
// session carries its own lock so a slow location fetch on one delivery
// never stalls the others.
type session struct {
	mu sync.Mutex

	id              string
	beneficiaryName string
	state           models.DeliveryStatus

	otpHash     []byte // bcrypt hash of a provisioned code
	otpSecret   string // base32 HOTP secret, preferred when set
	otpCounter  uint64
	otpAttempts int

	otpVerifiedAt    time.Time
	beneficiaryToken string
	assetToken       string

	reference      geo.Point
	radiusM        float64
	lastFix        *geo.Fix
	geofencePassed bool

	startedAt time.Time
}

// Status is the UI-facing snapshot of a session.
type Status struct {
	ID              string                `json:"id"`
	BeneficiaryName string                `json:"beneficiary_name,omitempty"`
	State           models.DeliveryStatus `json:"state"`
	OTPAttemptsLeft int                   `json:"otp_attempts_left"`
	GeofencePassed  bool                  `json:"geofence_passed"`
	LastFix         *geo.Fix              `json:"last_fix,omitempty"`
	StartedAt       time.Time             `json:"started_at"`
}

// ReceiptWriter renders a proof-of-delivery document for a confirmed
// record.
type ReceiptWriter interface {
	WriteDeliveryReceipt(rec models.DeliveryRecord) (string, error)
}

// Publisher pushes progress events to the device UI.
type Publisher interface {
	Publish(event string, payload interface{})
}

// StartSessionInput provisions a new delivery session. Exactly one of
// ExpectedOTP (plaintext code, hashed at rest) or OTPSecret (base32 HOTP
// secret shared with the backend, verified fully offline) must be set.
type StartSessionInput struct {
	BeneficiaryName string    `json:"beneficiary_name"`
	ExpectedOTP     string    `json:"expected_otp,omitempty"`
	OTPSecret       string    `json:"otp_secret,omitempty"`
	OTPCounter      uint64    `json:"otp_counter,omitempty"`
	Reference       geo.Point `json:"reference"`
	RadiusM         float64   `json:"radius_m,omitempty"`
}

// Service manages delivery sessions and writes confirmed records to the
// local store and the sync queue.
type Service struct {
	mu       sync.Mutex // guards the sessions map only
	sessions map[string]*session

	location   geo.LocationProvider
	deliveries *repositories.DeliveryRepository
	queue      *repositories.QueueRepository

	stats    *repositories.StatsRepository
	receipts ReceiptWriter
	events   Publisher

	maxOTPAttempts int
	defaultRadiusM float64
}

func NewService(
	location geo.LocationProvider,
	deliveries *repositories.DeliveryRepository,
	queue *repositories.QueueRepository,
	defaultRadiusM float64,
) *Service {
	return &Service{
		sessions:       make(map[string]*session),
		location:       location,
		deliveries:     deliveries,
		queue:          queue,
		maxOTPAttempts: DefaultMaxOTPAttempts,
		defaultRadiusM: defaultRadiusM,
	}
}

// SetReceiptWriter enables proof-of-delivery PDFs on confirmation.
func (s *Service) SetReceiptWriter(w ReceiptWriter) { s.receipts = w }

// SetPublisher enables UI progress events.
func (s *Service) SetPublisher(p Publisher) { s.events = p }

// SetStatsRepository enables enumerator gamification updates.
func (s *Service) SetStatsRepository(r *repositories.StatsRepository) { s.stats = r }

// SetMaxOTPAttempts overrides the per-session OTP retry bound.
func (s *Service) SetMaxOTPAttempts(n int) {
	if n > 0 {
		s.maxOTPAttempts = n
	}
}

// StartSession provisions a session in AwaitingOtp and eagerly runs a
// first geofence evaluation so the operator gets early feedback. The
// gate itself is enforced only at Confirm.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (Status, error) {
	if (in.ExpectedOTP == "") == (in.OTPSecret == "") {
		return Status{}, fmt.Errorf("delivery: exactly one of expected_otp or otp_secret required")
	}

	sess := &session{
		id:              uuid.NewString(),
		beneficiaryName: in.BeneficiaryName,
		state:           models.DeliveryAwaitingOtp,
		otpSecret:       in.OTPSecret,
		otpCounter:      in.OTPCounter,
		reference:       in.Reference,
		radiusM:         in.RadiusM,
		startedAt:       time.Now().UTC(),
	}
	if sess.radiusM <= 0 {
		sess.radiusM = s.defaultRadiusM
	}
	if in.ExpectedOTP != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.ExpectedOTP), bcrypt.DefaultCost)
		if err != nil {
			return Status{}, fmt.Errorf("delivery: seal expected otp: %w", err)
		}
		sess.otpHash = hash
	}

	s.evaluateGeofence(ctx, sess)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log.Printf("[Delivery] session %s started (radius %.0fm)", sess.id, sess.radiusM)
	return sess.snapshot(s.maxOTPAttempts), nil
}

// get resolves a live session pointer. Callers take the session's own
// lock before touching its state.
func (s *Service) get(sessionID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Status returns the current snapshot of a session.
func (s *Service) Status(sessionID string) (Status, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(s.maxOTPAttempts), nil
}

// VerifyOTP checks the entered code. A mismatch keeps the session in
// AwaitingOtp for re-entry until the attempt bound is exhausted, at
// which point the session fails permanently.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, code string) (Status, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != models.DeliveryAwaitingOtp {
		return sess.snapshot(s.maxOTPAttempts), ErrInvalidState
	}

	sess.otpAttempts++
	if sess.verifyCode(code) {
		sess.state = models.DeliveryAwaitingBeneficiaryScan
		sess.otpVerifiedAt = time.Now().UTC()
		log.Printf("[Delivery] session %s otp verified", sess.id)
		return sess.snapshot(s.maxOTPAttempts), nil
	}

	if sess.otpAttempts >= s.maxOTPAttempts {
		sess.state = models.DeliveryFailed
		log.Printf("[Delivery] session %s failed: otp attempts exhausted", sess.id)
		return sess.snapshot(s.maxOTPAttempts), ErrTooManyOTPAttempts
	}
	return sess.snapshot(s.maxOTPAttempts), ErrOTPMismatch
}

// SubmitScan feeds a decoded QR/barcode token to the session. A scan of
// the wrong token type is rejected and the session stays in place.
func (s *Service) SubmitScan(ctx context.Context, sessionID, token string) (Status, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	kind := classifyToken(token)
	switch sess.state {
	case models.DeliveryAwaitingBeneficiaryScan:
		if kind == tokenUnknown {
			return sess.snapshot(s.maxOTPAttempts), ErrUnrecognizedToken
		}
		if kind != tokenBeneficiary {
			return sess.snapshot(s.maxOTPAttempts), ErrTokenTypeMismatch
		}
		sess.beneficiaryToken = identity.Normalize(token)
		sess.state = models.DeliveryAwaitingAssetScan

	case models.DeliveryAwaitingAssetScan:
		if kind == tokenUnknown {
			return sess.snapshot(s.maxOTPAttempts), ErrUnrecognizedToken
		}
		if kind != tokenAsset {
			return sess.snapshot(s.maxOTPAttempts), ErrTokenTypeMismatch
		}
		sess.assetToken = token
		sess.state = models.DeliveryAwaitingGeofence
		// Early feedback for the final step.
		s.evaluateGeofence(ctx, sess)

	default:
		return sess.snapshot(s.maxOTPAttempts), ErrInvalidState
	}

	return sess.snapshot(s.maxOTPAttempts), nil
}

// RefreshGeofence re-evaluates the geofence on demand so the UI can show
// live in/out feedback. ErrLocationUnavailable propagates distinctly; it
// is not a failed geofence.
func (s *Service) RefreshGeofence(ctx context.Context, sessionID string) (Status, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	fix, err := s.location.CurrentFix(ctx)
	if err != nil {
		return sess.snapshot(s.maxOTPAttempts), err
	}
	sess.lastFix = &fix
	sess.geofencePassed = geo.IsWithin(fix.Point, sess.reference, sess.radiusM)
	return sess.snapshot(s.maxOTPAttempts), nil
}

// Confirm executes the final hard gate: a fresh location fix must fall
// inside the geofence, otherwise confirmation is blocked and the session
// stays in AwaitingGeofence. On success the record is enqueued for sync,
// archived locally and the one-shot session is discarded.
func (s *Service) Confirm(ctx context.Context, sessionID string) (*models.DeliveryRecord, error) {
	sess, ok := s.get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state != models.DeliveryAwaitingGeofence {
		return nil, ErrInvalidState
	}

	fix, err := s.location.CurrentFix(ctx)
	if err != nil {
		return nil, err
	}
	sess.lastFix = &fix
	sess.geofencePassed = geo.IsWithin(fix.Point, sess.reference, sess.radiusM)
	if !sess.geofencePassed {
		return nil, ErrGeofenceNotPassed
	}

	record := models.DeliveryRecord{
		ID:               fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]),
		BeneficiaryToken: sess.beneficiaryToken,
		AssetToken:       sess.assetToken,
		GeoFix:           models.GeoPoint{Lat: fix.Lat, Lng: fix.Lng},
		OTPVerifiedAt:    sess.otpVerifiedAt,
		ConfirmedAt:      time.Now().UTC(),
		Status:           models.DeliveryConfirmed,
	}

	// The queue is what crosses the offline/online boundary; a failed
	// enqueue means the delivery is not confirmed.
	if _, err := s.queue.Enqueue(ctx, models.QueueKindDelivery, record); err != nil {
		return nil, err
	}
	if err := s.deliveries.Append(ctx, record); err != nil {
		// The record is already queued for the server; losing the local
		// archive copy is logged, not fatal.
		log.Printf("[Delivery] archive write failed for %s: %v", record.ID, err)
	}

	if s.stats != nil {
		if _, err := s.stats.RecordActivity(ctx, time.Now()); err != nil {
			log.Printf("[Delivery] stats update failed: %v", err)
		}
	}
	if s.receipts != nil {
		if path, err := s.receipts.WriteDeliveryReceipt(record); err != nil {
			log.Printf("[Delivery] receipt generation failed: %v", err)
		} else {
			log.Printf("[Delivery] receipt written to %s", path)
		}
	}
	if s.events != nil {
		s.events.Publish("delivery_confirmed", record)
	}
	metrics.DeliveriesConfirmedTotal.Inc()

	// Marking the state closed first keeps a second Confirm holding the
	// same session pointer from running the gate twice.
	sess.state = models.DeliveryConfirmed
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	log.Printf("[Delivery] session %s confirmed asset %s", sessionID, record.AssetToken)
	return &record, nil
}

// Abandon discards an in-progress session without persisting anything,
// e.g. when the operator navigates away.
func (s *Service) Abandon(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		log.Printf("[Delivery] session %s abandoned", sessionID)
	}
}

// evaluateGeofence records a best-effort fix; acquisition failures leave
// the last known result untouched. Called with the session lock held,
// or from StartSession before the session is shared.
func (s *Service) evaluateGeofence(ctx context.Context, sess *session) {
	fix, err := s.location.CurrentFix(ctx)
	if err != nil {
		log.Printf("[Delivery] geofence probe: %v", err)
		return
	}
	sess.lastFix = &fix
	sess.geofencePassed = geo.IsWithin(fix.Point, sess.reference, sess.radiusM)
}

func (sess *session) verifyCode(code string) bool {
	if sess.otpSecret != "" {
		ok, err := hotp.ValidateCustom(code, sess.otpCounter, sess.otpSecret, hotp.ValidateOpts{
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			log.Printf("[Delivery] hotp validation error: %v", err)
			return false
		}
		return ok
	}
	return bcrypt.CompareHashAndPassword(sess.otpHash, []byte(code)) == nil
}

func (sess *session) snapshot(maxAttempts int) Status {
	left := maxAttempts - sess.otpAttempts
	if left < 0 || sess.state != models.DeliveryAwaitingOtp {
		left = 0
	}
	return Status{
		ID:              sess.id,
		BeneficiaryName: sess.beneficiaryName,
		State:           sess.state,
		OTPAttemptsLeft: left,
		GeofencePassed:  sess.geofencePassed,
		LastFix:         sess.lastFix,
		StartedAt:       sess.startedAt,
	}
}
