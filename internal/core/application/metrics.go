package application

import (
	"context"
	"errors"

	arkerrors "github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type bridgeMetrics struct {
	minted          metric.Int64Counter
	locked          metric.Int64Counter
	emissionsFailed metric.Int64Counter
	rejected        metric.Int64Counter
}

func newBridgeMetrics() *bridgeMetrics {
	meter := otel.Meter(tracerName)
	m := &bridgeMetrics{}

	var err error
	if m.minted, err = meter.Int64Counter(
		"nftbridge.inbound.minted", metric.WithDescription("assets minted for inbound messages"),
	); err != nil {
		log.WithError(err).Warn("failed to create minted counter")
	}
	if m.locked, err = meter.Int64Counter(
		"nftbridge.outbound.locked", metric.WithDescription("assets locked into custody"),
	); err != nil {
		log.WithError(err).Warn("failed to create locked counter")
	}
	if m.emissionsFailed, err = meter.Int64Counter(
		"nftbridge.outbound.emissions_failed",
		metric.WithDescription("outbound messages that could not be handed to the gateway"),
	); err != nil {
		log.WithError(err).Warn("failed to create emissions failed counter")
	}
	if m.rejected, err = meter.Int64Counter(
		"nftbridge.rejected", metric.WithDescription("rejected bridge operations by error code"),
	); err != nil {
		log.WithError(err).Warn("failed to create rejected counter")
	}
	return m
}

func (m *bridgeMetrics) add(
	ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue,
) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *bridgeMetrics) reject(ctx context.Context, operation string, err error) {
	code := "UNKNOWN"
	var typedErr arkerrors.Error
	if errors.As(err, &typedErr) {
		code = typedErr.CodeName()
	}
	m.add(ctx, m.rejected,
		attribute.String("operation", operation), attribute.String("code", code),
	)
}
