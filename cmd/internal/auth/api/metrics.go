package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geotrack",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	inscriptionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geotrack",
		Subsystem: "auth",
		Name:      "inscriptions_total",
		Help:      "Registration attempts by result.",
	}, []string{"result"})

	validateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geotrack",
		Subsystem: "auth",
		Name:      "validations_total",
		Help:      "Token validation checks by result.",
	}, []string{"result"})

	logoutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geotrack",
		Subsystem: "auth",
		Name:      "logouts_total",
		Help:      "Logout requests (always succeed).",
	})
)
