package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"algotracker/internal/model"
	"algotracker/internal/pkg/apperr"
	"algotracker/internal/pkg/metrics"
	"algotracker/internal/pkg/notify"
	"algotracker/internal/pkg/otp"
	"algotracker/internal/pkg/password"
	"algotracker/internal/pkg/token"
	"algotracker/internal/store"
)

// DefaultMinPasswordLength is the shortest accepted password.
const DefaultMinPasswordLength = 6

var tooLongMessage = fmt.Sprintf("password must be at most %d bytes", password.MaxLength)

// Store is the credential persistence the service needs.
type Store interface {
	Create(ctx context.Context, acc *model.Account) error
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id string) (*model.Account, error)
	SetOTP(ctx context.Context, id, code string, expiry time.Time) error
	MarkOTPVerified(ctx context.Context, id, code string, at time.Time) error
	ResetPassword(ctx context.Context, id, hash, expectedCode string) error
}

// Limiter throttles reset code requests per email.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// Options configures a Service.
type Options struct {
	ClientURL         string
	RoleSuffixes      map[string]string
	CookiePrefixes    map[string]string
	MinPasswordLength int
	Logger            *slog.Logger
}

// Service implements registration, login and the password reset flow.
type Service struct {
	store   Store
	hasher  *password.Hasher
	otps    *otp.Manager
	tokens  *token.Issuer
	mailer  notify.Sender
	limiter Limiter
	opts    Options
	logger  *slog.Logger
}

// NewService wires the service. limiter may be nil.
func NewService(st Store, hasher *password.Hasher, otps *otp.Manager, tokens *token.Issuer, mailer notify.Sender, limiter Limiter, opts Options) *Service {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultMinPasswordLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		hasher:  hasher,
		otps:    otps,
		tokens:  tokens,
		mailer:  mailer,
		limiter: limiter,
		opts:    opts,
		logger:  logger,
	}
}

// RegisterInput is the create-account payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginResult carries the session artifacts of a successful login.
type LoginResult struct {
	Account     *model.Account
	AccessToken string
	RoleToken   string
	CookieKey   string
}

// ResetRequest is returned after a reset code was sent.
type ResetRequest struct {
	AccountID   string
	RedirectURL string
}

// Register creates an account with the given role.
func (s *Service) Register(ctx context.Context, in RegisterInput, role string) (*model.Account, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		metrics.RegisterTotal.WithLabelValues(role, "invalid").Inc()
		return nil, apperr.Validation("Email, Password, and name are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		metrics.RegisterTotal.WithLabelValues(role, "invalid").Inc()
		return nil, apperr.Validation("Invalid email format")
	}
	if len(in.Password) < s.opts.MinPasswordLength {
		metrics.RegisterTotal.WithLabelValues(role, "invalid").Inc()
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", s.opts.MinPasswordLength))
	}
	if len(in.Password) > password.MaxLength {
		metrics.RegisterTotal.WithLabelValues(role, "invalid").Inc()
		return nil, apperr.Validation(tooLongMessage)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Transient("Failed to create account", err)
	}

	acc := &model.Account{
		Email:        email,
		Name:         strings.ToLower(strings.TrimSpace(in.Name)),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.RegisterTotal.WithLabelValues(role, "duplicate").Inc()
			return nil, apperr.Conflict(fmt.Sprintf("%s with this email already exists", roleLabel(role)))
		}
		return nil, apperr.Transient("Failed to create account", err)
	}

	metrics.RegisterTotal.WithLabelValues(role, "ok").Inc()
	s.logger.Info("account created", slog.String("email", email), slog.String("role", role))
	return acc, nil
}

// Login checks credentials for an account of the given role and mints the
// session tokens.
func (s *Service) Login(ctx context.Context, role, email, plain string) (*LoginResult, error) {
	acc, err := s.findByEmail(ctx, role, email)
	if err != nil {
		if apperr.From(err).Kind == apperr.KindNotFound {
			metrics.LoginTotal.WithLabelValues(role, "not_found").Inc()
		}
		return nil, err
	}
	if !s.hasher.Verify(plain, acc.PasswordHash) {
		metrics.LoginTotal.WithLabelValues(role, "bad_password").Inc()
		s.logger.Info("login rejected", slog.String("email", acc.Email), slog.String("role", role))
		return nil, apperr.Auth("Invalid credentials")
	}

	access, err := s.tokens.IssueAccess(acc)
	if err != nil {
		return nil, apperr.Transient("Login failed", err)
	}
	roleToken, err := s.tokens.IssueRole(acc.Role, s.opts.RoleSuffixes[acc.Role])
	if err != nil {
		return nil, apperr.Transient("Login failed", err)
	}
	key, err := token.CookieKey(s.opts.CookiePrefixes[acc.Role])
	if err != nil {
		return nil, apperr.Transient("Login failed", err)
	}

	metrics.LoginTotal.WithLabelValues(role, "ok").Inc()
	s.logger.Info("account logged in", slog.String("email", acc.Email), slog.String("role", role))
	return &LoginResult{
		Account:     acc,
		AccessToken: access,
		RoleToken:   roleToken,
		CookieKey:   key,
	}, nil
}

// RequestPasswordReset issues a reset code and emails it with a link to the
// reset page. A failed send leaves the persisted code valid.
func (s *Service) RequestPasswordReset(ctx context.Context, role, email string) (*ResetRequest, error) {
	if model.NormalizeEmail(email) == "" {
		return nil, apperr.Validation("Email is required")
	}
	acc, err := s.findByEmail(ctx, role, email)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.Allow(ctx, acc.Email)
		if err != nil {
			s.logger.Warn("otp limiter unavailable", slog.String("error", err.Error()))
		} else if !allowed {
			return nil, apperr.TooManyRequests(fmt.Sprintf("Too many OTP requests, retry in %s", retryAfter.Round(time.Second)))
		}
	}

	code, err := s.otps.Issue(ctx, acc)
	if err != nil {
		return nil, apperr.Transient("Internal Server Error", err)
	}
	metrics.OTPIssuedTotal.Inc()

	link := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.opts.ClientURL, "/"), acc.ID)
	if err := s.mailer.Send(ctx, acc.Email, notify.ResetSubject, notify.ResetMessage(code, link)); err != nil {
		s.logger.Error("send otp email failed", slog.String("email", acc.Email), slog.String("error", err.Error()))
		return nil, apperr.Transient("Failed to send OTP email", err)
	}

	s.logger.Info("otp issued", slog.String("email", acc.Email), slog.String("account_id", acc.ID))
	return &ResetRequest{AccountID: acc.ID, RedirectURL: link}, nil
}

// VerifyOTP checks a submitted code without consuming it and records the
// confirmation that ResetPassword requires when called without a code.
func (s *Service) VerifyOTP(ctx context.Context, id, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperr.Validation("OTP is required")
	}
	acc, err := s.store.FindByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Transient("Internal Server Error", err)
	}
	if err := s.otps.Confirm(ctx, acc, strings.TrimSpace(code)); err != nil {
		if !errors.Is(err, otp.ErrInvalidOrExpired) {
			return apperr.Transient("Internal Server Error", err)
		}
		metrics.OTPVerifyTotal.WithLabelValues("rejected").Inc()
		return apperr.Validation("Invalid or expired OTP")
	}
	metrics.OTPVerifyTotal.WithLabelValues("ok").Inc()
	return nil
}

// ResetPassword replaces the password of an account holding a valid pending
// code. When code is non-empty it must match the pending one; otherwise the
// pending code must have been confirmed through VerifyOTP. The hash write and
// the code clear happen in one store update.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword, code string) error {
	if newPassword == "" {
		return s.rejectReset(apperr.Validation("New password is required"))
	}
	if len(newPassword) < s.opts.MinPasswordLength {
		return s.rejectReset(apperr.Validation(fmt.Sprintf("password must be at least %d characters", s.opts.MinPasswordLength)))
	}
	if len(newPassword) > password.MaxLength {
		return s.rejectReset(apperr.Validation(tooLongMessage))
	}

	acc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.rejectReset(apperr.NotFound("Account not found"))
		}
		return apperr.Transient("Internal Server Error", err)
	}

	if code = strings.TrimSpace(code); code != "" {
		err = s.otps.Verify(acc, code)
	} else {
		err = s.otps.CheckVerified(acc)
	}
	if err != nil {
		return s.rejectReset(apperr.Validation("Invalid or expired OTP"))
	}

	if s.hasher.Verify(newPassword, acc.PasswordHash) {
		return s.rejectReset(apperr.Validation("New password cannot be the same as the old password"))
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Transient("Internal Server Error", err)
	}
	if err := s.store.ResetPassword(ctx, acc.ID, hash, *acc.OTPCode); err != nil {
		if errors.Is(err, store.ErrStaleOTP) {
			return s.rejectReset(apperr.Validation("Invalid or expired OTP"))
		}
		return apperr.Transient("Internal Server Error", err)
	}
	acc.PasswordHash = hash
	s.otps.Clear(acc)

	metrics.PasswordResetTotal.WithLabelValues("ok").Inc()
	s.logger.Info("password reset", slog.String("account_id", acc.ID))
	return nil
}

// Authenticate resolves an access token to its claims.
func (s *Service) Authenticate(tokenStr string) (*token.AccessClaims, error) {
	claims, err := s.tokens.ParseAccess(tokenStr)
	if err != nil {
		return nil, apperr.Auth("Unauthorized")
	}
	return claims, nil
}

// DecodeRoleCookie returns the role in a role-token cookie value issued for
// expectedRole.
func (s *Service) DecodeRoleCookie(value, expectedRole string) (string, bool) {
	suffix := s.opts.RoleSuffixes[expectedRole]
	role, err := s.tokens.DecodeRole(value, suffix)
	if err != nil || role != expectedRole {
		return "", false
	}
	return role, true
}

// CookiePrefix returns the role-token cookie name prefix for role.
func (s *Service) CookiePrefix(role string) string {
	return s.opts.CookiePrefixes[role]
}

func (s *Service) findByEmail(ctx context.Context, role, email string) (*model.Account, error) {
	acc, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("%s not found", roleLabel(role)))
		}
		return nil, apperr.Transient("Internal Server Error", err)
	}
	if acc.Role != role {
		return nil, apperr.NotFound(fmt.Sprintf("%s not found", roleLabel(role)))
	}
	return acc, nil
}

func (s *Service) rejectReset(err *apperr.Error) error {
	metrics.PasswordResetTotal.WithLabelValues("rejected").Inc()
	return err
}

func roleLabel(role string) string {
	switch role {
	case model.RoleManager:
		return "Manager"
	case model.RoleUser:
		return "User"
	default:
		return "Account"
	}
}
