package metrics

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"scholarcrm/internal/domain"
)

// Metrics tracks lifecycle throughput and rule rejections.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	PayoutsRequested  prometheus.Counter
	PayoutAmountTotal prometheus.Counter
	EmailsEnqueued    prometheus.Counter
	HTTPDuration      *prometheus.HistogramVec

	mu        sync.RWMutex
	listeners []func(Transition)
}

// Transition is a committed status change as seen by listeners.
type Transition struct {
	Entity string    `json:"entity"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer in production and a
// fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarcrm_status_transitions_total",
			Help: "Committed status transitions by entity and edge",
		}, []string{"entity", "from", "to"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarcrm_operation_rejections_total",
			Help: "Lifecycle operations refused by a business rule",
		}, []string{"operation", "reason"}),
		PayoutsRequested: f.NewCounter(prometheus.CounterOpts{
			Name: "scholarcrm_payouts_requested_total",
			Help: "Total number of payout requests accepted",
		}),
		PayoutAmountTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "scholarcrm_payout_amount_paid_total",
			Help: "Total commission amount marked paid (INR)",
		}),
		EmailsEnqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "scholarcrm_emails_enqueued_total",
			Help: "Emails written to the outbox",
		}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholarcrm_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// ObserveTransition records a committed status change.
func (m *Metrics) ObserveTransition(entity, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(entity, from, to).Inc()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.listeners) == 0 {
		return
	}
	t := Transition{Entity: entity, From: from, To: to, At: time.Now().UTC()}
	for _, fn := range m.listeners {
		fn(t)
	}
}

// OnTransition registers fn to run after every recorded transition. fn must not block.
func (m *Metrics) OnTransition(fn func(Transition)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// ObserveRejection records a refused operation, labelled by the taxonomy error it failed with.
func (m *Metrics) ObserveRejection(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, reason(err)).Inc()
}

func (m *Metrics) ObservePayoutRequested() {
	if m == nil {
		return
	}
	m.PayoutsRequested.Inc()
}

func (m *Metrics) ObservePayoutPaid(amount int64) {
	if m == nil {
		return
	}
	m.PayoutAmountTotal.Add(float64(amount))
}

func (m *Metrics) ObserveEmailEnqueued() {
	if m == nil {
		return
	}
	m.EmailsEnqueued.Inc()
}

// GinMiddleware measures request latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

var reasons = []struct {
	err  error
	name string
}{
	{domain.ErrInvalidTransition, "invalid_transition"},
	{domain.ErrUnauthorized, "unauthorized"},
	{domain.ErrAlreadyAssigned, "already_assigned"},
	{domain.ErrMissingFinalizationData, "missing_finalization_data"},
	{domain.ErrLeadAlreadyConverted, "lead_already_converted"},
	{domain.ErrIncompleteDealTerms, "incomplete_deal_terms"},
	{domain.ErrInsufficientBalance, "insufficient_balance"},
	{domain.ErrBelowMinimumPayout, "below_minimum_payout"},
	{domain.ErrTaskAlreadyActive, "task_already_active"},
	{domain.ErrPermissionDenied, "permission_denied"},
	{domain.ErrNotFound, "not_found"},
	{domain.ErrValidation, "validation"},
}

func reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "internal"
}
