package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"algotracker/internal/model"
	"algotracker/internal/store"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

const codeSpace = 1000000

// ErrInvalidOrExpired covers a missing, wrong or expired code.
var ErrInvalidOrExpired = errors.New("invalid or expired otp")

// Store persists reset codes.
type Store interface {
	SetOTP(ctx context.Context, id, code string, expiry time.Time) error
	MarkOTPVerified(ctx context.Context, id, code string, at time.Time) error
}

// Manager issues and checks password reset codes.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a Manager. A non-positive ttl falls back to DefaultTTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue generates a new code for acc, persists it and updates acc in place.
// Any pending code is replaced.
func (m *Manager) Issue(ctx context.Context, acc *model.Account) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	expiry := m.now().Add(m.ttl)
	if err := m.store.SetOTP(ctx, acc.ID, code, expiry); err != nil {
		return "", fmt.Errorf("persist otp: %w", err)
	}
	acc.OTPCode = &code
	acc.OTPExpiry = &expiry
	acc.OTPVerified = nil
	return code, nil
}

// Verify checks submitted against the pending code on acc. It never clears
// the code.
func (m *Manager) Verify(acc *model.Account, submitted string) error {
	if err := m.CheckPending(acc); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(*acc.OTPCode), []byte(submitted)) != 1 {
		return ErrInvalidOrExpired
	}
	return nil
}

// Confirm verifies submitted and records the confirmation so a later reset
// can proceed without the code. A code replaced in the meantime fails with
// ErrInvalidOrExpired.
func (m *Manager) Confirm(ctx context.Context, acc *model.Account, submitted string) error {
	if err := m.Verify(acc, submitted); err != nil {
		return err
	}
	at := m.now()
	if err := m.store.MarkOTPVerified(ctx, acc.ID, *acc.OTPCode, at); err != nil {
		if errors.Is(err, store.ErrStaleOTP) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("mark otp verified: %w", err)
	}
	acc.OTPVerified = &at
	return nil
}

// CheckVerified reports whether acc holds an unexpired code that was
// confirmed through Confirm.
func (m *Manager) CheckVerified(acc *model.Account) error {
	if err := m.CheckPending(acc); err != nil {
		return err
	}
	if acc.OTPVerified == nil {
		return ErrInvalidOrExpired
	}
	return nil
}

// CheckPending reports whether acc holds an unexpired code.
func (m *Manager) CheckPending(acc *model.Account) error {
	if acc == nil || !acc.HasPendingOTP() {
		return ErrInvalidOrExpired
	}
	if !m.now().Before(*acc.OTPExpiry) {
		return ErrInvalidOrExpired
	}
	return nil
}

// Clear drops the code from the in-memory record once the store has
// committed the reset.
func (m *Manager) Clear(acc *model.Account) {
	acc.OTPCode = nil
	acc.OTPExpiry = nil
	acc.OTPVerified = nil
}

// GenerateCode returns a uniformly random zero-padded 6-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
