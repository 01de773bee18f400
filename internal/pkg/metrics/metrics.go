package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginTotal counts login attempts by role and result (ok / not_found / bad_password).
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "algotracker_login_total",
		Help: "Login attempts by role and result.",
	}, []string{"role", "result"})

	// RegisterTotal counts account registrations by role and result.
	RegisterTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "algotracker_register_total",
		Help: "Account registrations by role and result.",
	}, []string{"role", "result"})

	// OTPIssuedTotal counts issued reset codes.
	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algotracker_otp_issued_total",
		Help: "Password reset codes issued.",
	})

	// OTPVerifyTotal counts code checks by result (ok / rejected).
	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "algotracker_otp_verify_total",
		Help: "Password reset code checks by result.",
	}, []string{"result"})

	// PasswordResetTotal counts reset attempts by result.
	PasswordResetTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "algotracker_password_reset_total",
		Help: "Password reset attempts by result.",
	}, []string{"result"})

	// EmailSentTotal counts outgoing mails by result (ok / error).
	EmailSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "algotracker_email_sent_total",
		Help: "Outgoing emails by result.",
	}, []string{"result"})

	// RateLimitRejectedTotal counts OTP requests refused by the limiter.
	RateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algotracker_ratelimit_rejected_total",
		Help: "OTP requests refused by the per-email limiter.",
	})

	// ProblemDuplicatePreventedTotal counts problem creates skipped as duplicates.
	ProblemDuplicatePreventedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algotracker_problem_duplicate_prevented_total",
		Help: "Problem creates skipped because the link was just submitted.",
	})

	// HTTPRequestDuration observes request latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "algotracker_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

var initOnce sync.Once

// InitMetrics pre-creates label combinations so they export as zero.
func InitMetrics() {
	initOnce.Do(func() {
		for _, role := range []string{"manager", "user"} {
			for _, result := range []string{"ok", "not_found", "bad_password"} {
				LoginTotal.WithLabelValues(role, result)
			}
			for _, result := range []string{"ok", "invalid", "duplicate"} {
				RegisterTotal.WithLabelValues(role, result)
			}
		}
		OTPVerifyTotal.WithLabelValues("ok")
		OTPVerifyTotal.WithLabelValues("rejected")
		PasswordResetTotal.WithLabelValues("ok")
		PasswordResetTotal.WithLabelValues("rejected")
		EmailSentTotal.WithLabelValues("ok")
		EmailSentTotal.WithLabelValues("error")
	})
}
