// Package metrics exposes verification outcomes to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

const (
	OpStart       = "start"
	OpSubmit      = "submit"
	OpResend      = "resend"
	OpForceVerify = "force_verify"
	OpRevoke      = "revoke"

	OutcomeOK = "ok"
)

// Recorder is what the command handlers report to.
type Recorder interface {
	RecordOutcome(operation string, err error)
	RecordDelivery(duration time.Duration, err error)
}

type Collector struct {
	operations *prometheus.CounterVec
	delivery   *prometheus.HistogramVec
}

// NewCollector registers the collector's metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emailverify_operations_total",
			Help: "Verification operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		delivery: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "emailverify_delivery_duration_seconds",
			Help:    "Time spent handing a code to the notifier.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.operations, c.delivery)

	return c
}

func (c *Collector) RecordOutcome(operation string, err error) {
	c.operations.WithLabelValues(operation, Outcome(err)).Inc()
}

func (c *Collector) RecordDelivery(duration time.Duration, err error) {
	c.delivery.WithLabelValues(Outcome(err)).Observe(duration.Seconds())
}

// Outcome labels err by its error code; untyped errors count as internal.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var i18nErr *errorx.I18nError
	if errors.As(err, &i18nErr) {
		return i18nErr.Code.String()
	}
	var valErrs validation.Errors
	var valErr validation.Error
	if errors.As(err, &valErrs) || errors.As(err, &valErr) {
		return errorx.CodeValidationFailed.String()
	}
	return errorx.CodeInternal.String()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type Nop struct{}

func (Nop) RecordOutcome(string, error)          {}
func (Nop) RecordDelivery(time.Duration, error) {}
