package cli

import "github.com/prometheus/client_golang/prometheus"

// prometheusDefaultRegisterer returns the global Prometheus registerer,
// isolated into its own tiny function so tests elsewhere can construct
// scheduler instances against a private *prometheus.Registry instead
// without touching this package.
func prometheusDefaultRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
