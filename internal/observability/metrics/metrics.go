package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	commissionTransitions metric.Int64Counter
	payoutsCreated        metric.Int64Counter
	payoutAmounts         metric.Int64Counter
	payoutTransitions     metric.Int64Counter
	claimsSettled         metric.Int64Counter
	claimedEarnings       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "reflist"
	}
	meter := provider.Meter(name)

	commissionTransitions, err := meter.Int64Counter("reflist_commission_transitions_total")
	if err != nil {
		return nil, err
	}
	payoutsCreated, err := meter.Int64Counter("reflist_payouts_created_total")
	if err != nil {
		return nil, err
	}
	payoutAmounts, err := meter.Int64Counter("reflist_payout_amount_total")
	if err != nil {
		return nil, err
	}
	payoutTransitions, err := meter.Int64Counter("reflist_payout_transitions_total")
	if err != nil {
		return nil, err
	}
	claimsSettled, err := meter.Int64Counter("reflist_claims_settled_total")
	if err != nil {
		return nil, err
	}
	claimedEarnings, err := meter.Int64Counter("reflist_claimed_earnings_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		commissionTransitions: commissionTransitions,
		payoutsCreated:        payoutsCreated,
		payoutAmounts:         payoutAmounts,
		payoutTransitions:     payoutTransitions,
		claimsSettled:         claimsSettled,
		claimedEarnings:       claimedEarnings,
	}, nil
}

// RecordCommissionTransition increments commission transition counts.
func (m *Metrics) RecordCommissionTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.commissionTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPayoutCreated increments payout creation counts and amounts.
func (m *Metrics) RecordPayoutCreated(ctx context.Context, action string, amount int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.payoutsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.payoutAmounts.Add(ctx, amount, metric.WithAttributes(attrs...))
}

// RecordPayoutTransition increments payout transition counts.
func (m *Metrics) RecordPayoutTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.payoutTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordClaimSettled increments claim settlement counts and earnings.
func (m *Metrics) RecordClaimSettled(ctx context.Context, count, earnings int64) {
	if m == nil {
		return
	}
	m.claimsSettled.Add(ctx, count)
	m.claimedEarnings.Add(ctx, earnings)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status":      {},
	"action":      {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
