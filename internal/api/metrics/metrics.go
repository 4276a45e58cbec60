// Package metrics defines and registers the custom Prometheus metrics for the
// accounts service. HTTP request metrics come from the echoprometheus
// middleware; the counters here describe account outcomes.
//
// The counters are registered by Register, which the router calls with its
// configured registerer.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/99minutos/accounts-service/internal/core/domain"
)

const namespace = "accounts"

// Result label values shared by the counters below.
const (
	ResultSuccess            = "success"
	ResultDuplicate          = "duplicate"
	ResultInProgress         = "in_progress"
	ResultNotFound           = "not_found"
	ResultInvalidCredentials = "invalid_credentials"
	ResultError              = "error"
)

// SignupsTotal counts signup attempts.
// Label:
//   - result: success, duplicate, in_progress or error
var SignupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: success, not_found, invalid_credentials or error
var LoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// Register adds the account counters to reg. Registering twice on the same
// registry is a no-op.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{SignupsTotal, LoginsTotal} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ResultFor maps an account operation error to its result label.
func ResultFor(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, domain.ErrDuplicateAccount):
		return ResultDuplicate
	case errors.Is(err, domain.ErrSignupInProgress):
		return ResultInProgress
	case errors.Is(err, domain.ErrAccountNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ResultInvalidCredentials
	default:
		return ResultError
	}
}
