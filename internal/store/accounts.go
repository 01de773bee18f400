package store

import (
	"context"
	"fmt"
	"time"

	"algotracker/internal/model"

	"gorm.io/gorm"
)

// Accounts persists credential records.
type Accounts struct {
	db *gorm.DB
}

// NewAccounts creates an account store.
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Create inserts a new account. The email is normalized first.
func (s *Accounts) Create(ctx context.Context, acc *model.Account) error {
	acc.Email = model.NormalizeEmail(acc.Email)
	if err := s.db.WithContext(ctx).Create(acc).Error; err != nil {
		if mapped := mapError(err); mapped == ErrDuplicate {
			return ErrDuplicate
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// FindByEmail looks an account up by normalized email.
func (s *Accounts) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var acc model.Account
	err := s.db.WithContext(ctx).
		Where("email = ?", model.NormalizeEmail(email)).
		First(&acc).Error
	if err != nil {
		if mapped := mapError(err); mapped == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &acc, nil
}

// FindByID looks an account up by id.
func (s *Accounts) FindByID(ctx context.Context, id string) (*model.Account, error) {
	var acc model.Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&acc).Error
	if err != nil {
		if mapped := mapError(err); mapped == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &acc, nil
}

// SetOTP stores a reset code and its expiry in one statement, replacing any
// pending code and its confirmation.
func (s *Accounts) SetOTP(ctx context.Context, id, code string, expiry time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"otp_code":        code,
			"otp_expiry":      expiry,
			"otp_verified_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("set otp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOTPVerified records that the pending code was confirmed. It only
// applies while the stored code still equals code.
func (s *Accounts) MarkOTPVerified(ctx context.Context, id, code string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND otp_code = ?", id, code).
		Update("otp_verified_at", at)
	if res.Error != nil {
		return fmt.Errorf("mark otp verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleOTP
	}
	return nil
}

// ResetPassword writes the new hash and clears the reset code in one
// statement. It only applies while the stored code still equals expectedCode.
func (s *Accounts) ResetPassword(ctx context.Context, id, hash, expectedCode string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND otp_code = ?", id, expectedCode).
		Updates(map[string]interface{}{
			"password":        hash,
			"otp_code":        nil,
			"otp_expiry":      nil,
			"otp_verified_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("reset password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleOTP
	}
	return nil
}
