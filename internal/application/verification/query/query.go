package query

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/internal/domain/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/logging"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/application/verification/query")
	logger = otelslog.NewLogger("emailverify/application/verification/query")
)

type Repo interface {
	GetVerification(ctx context.Context, identity verification.Identity) (*verification.Record, error)
	ListVerifications(ctx context.Context, filter verification.Filter) ([]*verification.Record, error)
}

// VerificationResponse never carries the code.
type VerificationResponse struct {
	Identity   string     `json:"identity"`
	Email      string     `json:"email,omitempty"`
	Handle     string     `json:"handle,omitempty"`
	State      string     `json:"state"`
	Verified   bool       `json:"verified"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func toResponse(rec *verification.Record, redact bool) VerificationResponse {
	email := rec.Email()
	if redact {
		email = logging.RedactEmail(email)
	}
	res := VerificationResponse{
		Identity: rec.Identity().String(),
		Email:    email,
		Handle:   rec.Handle(),
		State:    rec.State().String(),
		Verified: rec.IsVerified(),
	}
	if t := rec.IssuedAt(); !t.IsZero() {
		res.IssuedAt = &t
	}
	if t := rec.VerifiedAt(); !t.IsZero() {
		res.VerifiedAt = &t
	}
	return res
}

type GetVerification struct {
	Identity verification.Identity
}

type GetVerificationHandler struct {
	tracer trace.Tracer
	logger *slog.Logger
	repo   Repo
}

type GetVerificationHandlerArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Repo   Repo
}

func NewGetVerificationHandler(args GetVerificationHandlerArgs) *GetVerificationHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &GetVerificationHandler{
		tracer: args.Tracer,
		logger: args.Logger,
		repo:   args.Repo,
	}
}

// Handle returns the identity's state for the bridge. The email is redacted
// since bridge callers already know it.
func (h *GetVerificationHandler) Handle(ctx context.Context, q GetVerification) (*VerificationResponse, error) {
	const op = "query.GetVerificationHandler.Handle"
	ctx, span := h.tracer.Start(ctx, "GetVerificationHandler.Handle",
		trace.WithAttributes(attribute.String("identity", q.Identity.String())))
	defer span.End()

	rec, err := h.repo.GetVerification(ctx, q.Identity)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to get verification")
		return nil, errorx.Wrap(err, op)
	}

	res := toResponse(rec, true)
	return &res, nil
}

type ListVerifications struct {
	State verification.State
}

type ListVerificationsResponse struct {
	Verifications []VerificationResponse `json:"verifications"`
	Total         int                    `json:"total"`
}

type ListVerificationsHandler struct {
	tracer trace.Tracer
	logger *slog.Logger
	repo   Repo
}

type ListVerificationsHandlerArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Repo   Repo
}

func NewListVerificationsHandler(args ListVerificationsHandlerArgs) *ListVerificationsHandler {
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &ListVerificationsHandler{
		tracer: args.Tracer,
		logger: args.Logger,
		repo:   args.Repo,
	}
}

// Handle lists records for administrators, ordered by identity.
func (h *ListVerificationsHandler) Handle(ctx context.Context, q ListVerifications) (*ListVerificationsResponse, error) {
	const op = "query.ListVerificationsHandler.Handle"
	ctx, span := h.tracer.Start(ctx, "ListVerificationsHandler.Handle",
		trace.WithAttributes(attribute.String("verification.state", q.State.String())))
	defer span.End()

	recs, err := h.repo.ListVerifications(ctx, verification.Filter{State: q.State})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to list verifications")
		return nil, errorx.Wrap(err, op)
	}

	res := &ListVerificationsResponse{
		Verifications: make([]VerificationResponse, 0, len(recs)),
		Total:         len(recs),
	}
	for _, rec := range recs {
		res.Verifications = append(res.Verifications, toResponse(rec, false))
	}
	return res, nil
}

// GetCodeHandler reads the current code of a pending record. It backs a
// development-only route and must never be mounted in production.
type GetCodeHandler struct {
	repo Repo
}

func NewGetCodeHandler(repo Repo) *GetCodeHandler {
	return &GetCodeHandler{repo: repo}
}

func (h *GetCodeHandler) Handle(ctx context.Context, identity verification.Identity) (string, error) {
	const op = "query.GetCodeHandler.Handle"

	rec, err := h.repo.GetVerification(ctx, identity)
	if err != nil {
		return "", errorx.Wrap(err, op)
	}
	if !rec.IsState(verification.StatePending) {
		return "", errorx.Wrap(verification.ErrNoPendingRecord, op)
	}
	return rec.Code(), nil
}
