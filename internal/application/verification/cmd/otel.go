package cmd

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("emailverify/application/verification/cmd")
	logger = otelslog.NewLogger("emailverify/application/verification/cmd")
)
