package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventcheck_registrations_total",
		Help: "Participants registered.",
	})
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventcheck_scans_total",
		Help: "Attendance scans by outcome.",
	}, []string{"outcome"})
)
