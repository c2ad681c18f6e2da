package config

// MetricsConfig holds Prometheus metrics configuration. Port and path
// are shared with ServerConfig (the metrics endpoint is served off the
// same health/metrics listener, spec §6); this only adds the
// namespace prefix applied to every registered metric.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"SMARTCOPY_METRICS_ENABLED" default:"true"`
	Namespace string `yaml:"namespace" env:"SMARTCOPY_METRICS_NAMESPACE" default:"smartcopy"`
}
