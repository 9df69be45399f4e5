package postgres

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

var (
	tracer = otel.Tracer("emailverify/internal/adapters/repos/postgres")
	logger = otelslog.NewLogger("emailverify/internal/adapters/repos/postgres")
)
