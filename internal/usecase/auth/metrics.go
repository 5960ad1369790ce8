package auth

import (
	"errors"

	domain "authapi/backend/internal/domain/auth"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for auth metrics.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeDuplicateEmail     = "duplicate_email"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeExpired            = "expired"
	OutcomeInvalid            = "invalid"
	OutcomeMalformed          = "malformed"
	OutcomeError              = "error"
)

// Signups counts signup attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Signups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_signups_total",
		Help: "Total number of signup attempts",
	},
	[]string{"outcome"},
)

// Logins counts login attempts by outcome.
var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"outcome"},
)

// TokenValidations counts bearer token checks by outcome.
var TokenValidations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_token_validations_total",
		Help: "Total number of bearer token validations",
	},
	[]string{"outcome"},
)

// RegisterMetrics registers auth metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Signups)
	reg.MustRegister(Logins)
	reg.MustRegister(TokenValidations)
}

func RecordSignup(outcome string) {
	Signups.WithLabelValues(outcome).Inc()
}

func RecordLogin(outcome string) {
	Logins.WithLabelValues(outcome).Inc()
}

func RecordTokenValidation(outcome string) {
	TokenValidations.WithLabelValues(outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrEmptyPassword):
		return OutcomeInvalidInput
	case errors.Is(err, domain.ErrEmailExists):
		return OutcomeDuplicateEmail
	case errors.Is(err, domain.ErrInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, domain.ErrTokenExpired):
		return OutcomeExpired
	case errors.Is(err, domain.ErrTokenMalformed):
		return OutcomeMalformed
	case errors.Is(err, domain.ErrTokenInvalid):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
