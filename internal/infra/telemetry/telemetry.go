package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/campushub/lms-auth/internal/infra/config"
)

// Provider holds the service-level telemetry handles.
type Provider struct {
	info prometheus.Gauge
}

// Attach registers the service info gauge with the default registry. HTTP
// request collectors live in the transport middleware; this covers the
// static service identity sample scrapers key on.
func Attach(cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lms",
		Name:      "service_info",
		Help:      "Static service identity, always 1.",
		ConstLabels: prometheus.Labels{
			"service": serviceName,
			"env":     cfg.App.Env,
		},
	})

	if err := prometheus.Register(info); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				info = existing
			}
		} else {
			return nil, fmt.Errorf("register service info gauge: %w", err)
		}
	}

	info.Set(1)

	return &Provider{info: info}, nil
}
