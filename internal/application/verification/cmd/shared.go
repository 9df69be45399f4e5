package cmd

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/internal/metrics"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

func deliver(ctx context.Context, n Notifier, m metrics.Recorder, address, code string) error {
	started := time.Now()
	err := n.Deliver(ctx, address, code)
	m.RecordDelivery(time.Since(started), err)
	if err != nil {
		return errorx.NewDeliveryFailed().WithCause(err)
	}
	return nil
}

// grant reads the configured credential and hands it to the port. It runs
// after the verified state is committed, so its errors never undo it.
func grant(ctx context.Context, s SettingsGetter, port CredentialPort, identity verification.Identity) error {
	span := trace.SpanFromContext(ctx)

	g, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	if !g.HasCredential() {
		span.AddEvent("no credential configured")
		return errorx.NewNoCredentialConfigured()
	}

	if err := port.Grant(ctx, identity, g.CredentialID()); err != nil {
		return errorx.NewGrantFailed().WithCause(err)
	}
	span.AddEvent("credential granted")
	return nil
}
