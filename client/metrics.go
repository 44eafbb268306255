package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfcal_client",
			Name:      "requests_total",
			Help:      "Requests sent through the authenticated gateway.",
		},
		[]string{"method"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfcal_client",
			Name:      "token_refresh_total",
			Help:      "Token refresh attempts by outcome.",
		},
		[]string{"result"},
	)

	authRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mfcal_client",
			Name:      "auth_retries_total",
			Help:      "Requests replayed after a 401 triggered a refresh.",
		},
	)

	forcedLogoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mfcal_client",
			Name:      "forced_logouts_total",
			Help:      "Sessions cleared because recovery from a 401 failed.",
		},
	)
)

const (
	refreshResultSuccess = "success"
	refreshResultFailure = "failure"
)
