package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	namespace   = "vcbot"
	serviceName = "vcbot"
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
	ResultDenied = "denied"
)

var (
	registry = prometheus.NewRegistry()

	enforcementActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcement_actions_total",
			Help:      "Corrective actions attempted against restricted members",
		},
		[]string{"action", "result"},
	)

	enforcementIndeterminate = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcement_indeterminate_total",
			Help:      "Events left unenforced because the ledger could not be read",
		},
		[]string{"event"},
	)

	followRelocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "follow_relocations_total",
			Help:      "Tethered members relocated after their operator",
		},
		[]string{"result"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Slash commands handled",
		},
		[]string{"command", "result"},
	)

	eventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_processing_duration_seconds",
			Help:      "Time spent running the handler chain for one event",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"event"},
	)
)

func init() {
	registry.MustRegister(
		enforcementActions,
		enforcementIndeterminate,
		followRelocations,
		commandsTotal,
		eventProcessingDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
}

// Registry exposes the collectors for tests and the metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}

func RecordEnforcement(action, result string) {
	enforcementActions.WithLabelValues(action, result).Inc()
}

func RecordIndeterminate(event string) {
	enforcementIndeterminate.WithLabelValues(event).Inc()
}

func RecordRelocation(result string) {
	followRelocations.WithLabelValues(result).Inc()
}

func RecordCommand(command, result string) {
	commandsTotal.WithLabelValues(command, result).Inc()
}

// StartEventProcessing returns a function that records the elapsed time for event.
func StartEventProcessing(event string) func() {
	timer := prometheus.NewTimer(eventProcessingDuration.WithLabelValues(event))
	return func() {
		timer.ObserveDuration()
	}
}

// Tracer returns the named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// InitTracing installs the SDK tracer provider. The returned function flushes
// and shuts it down.
func InitTracing() func(context.Context) error {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	log.WithField("object", "Observability").Debug("tracer provider installed")
	return tp.Shutdown
}

// MetricsServer serves the registry on /metrics.
type MetricsServer struct {
	addr   string
	server *http.Server
	logger *log.Entry
}

func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log.WithField("object", "MetricsServer"),
	}
}

func (s *MetricsServer) Start(ctx context.Context) error {
	if s.addr == "" {
		s.logger.Info("metrics disabled")
		return nil
	}
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("metrics server failed")
		}
	}()
	s.logger.WithField("addr", listener.Addr().String()).Info("metrics server listening")
	return nil
}

func (s *MetricsServer) Stop(ctx context.Context) error {
	if s.addr == "" {
		return nil
	}
	return s.server.Shutdown(ctx)
}
