package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registration kinds and login outcomes used as label values.
const (
	KindIndividual = "individual"
	KindSchool     = "school"

	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Metrics holds the application counters.
type Metrics struct {
	RegistrationsCreated *prometheus.CounterVec
	RegistrationsFailed  *prometheus.CounterVec
	AdminLogins          *prometheus.CounterVec
	SheetBytes           prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "varna",
			Name:      "registrations_created_total",
			Help:      "Registrations stored, by kind.",
		}, []string{"kind"}),
		RegistrationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "varna",
			Name:      "registrations_failed_total",
			Help:      "Registrations rejected or not stored, by kind.",
		}, []string{"kind"}),
		AdminLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "varna",
			Name:      "admin_login_attempts_total",
			Help:      "Admin login attempts, by outcome.",
		}, []string{"outcome"}),
		SheetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "varna",
			Name:      "participant_sheet_bytes_total",
			Help:      "Bytes of participant sheets accepted.",
		}),
	}
	reg.MustRegister(m.RegistrationsCreated, m.RegistrationsFailed, m.AdminLogins, m.SheetBytes)
	return m
}

// Created counts a stored registration. All recording methods are no-ops on a nil *Metrics.
func (m *Metrics) Created(kind string) {
	if m != nil {
		m.RegistrationsCreated.WithLabelValues(kind).Inc()
	}
}

// Failed counts a registration that was not stored.
func (m *Metrics) Failed(kind string) {
	if m != nil {
		m.RegistrationsFailed.WithLabelValues(kind).Inc()
	}
}

// Login counts an admin login attempt.
func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	outcome := LoginFailure
	if ok {
		outcome = LoginSuccess
	}
	m.AdminLogins.WithLabelValues(outcome).Inc()
}

// Sheet counts the size of an accepted participant sheet.
func (m *Metrics) Sheet(size int64) {
	if m != nil && size > 0 {
		m.SheetBytes.Add(float64(size))
	}
}
