package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/logging"
	"gitlab.com/ucmsv2/emailverify/pkg/otelx"
)

var (
	tracer = otel.Tracer("emailverify/internal/adapters/services/mailer")
	logger = otelslog.NewLogger("emailverify/internal/adapters/services/mailer")
)

const VerificationCodeSubject = "Your Verification Code"

type Payload struct {
	To      string
	Subject string
	Body    string
}

func (p *Payload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.To, validation.Required, is.EmailFormat),
		validation.Field(&p.Subject, validation.Required),
		validation.Field(&p.Body, validation.Required),
	)
}

func VerificationCodePayload(address, code string) Payload {
	return Payload{
		To:      address,
		Subject: VerificationCodeSubject,
		Body:    fmt.Sprintf("Your code is: %s", code),
	}
}

type Sender interface {
	SendMail(ctx context.Context, payload Payload) error
}

// Notifier delivers verification codes by email through a Sender.
type Notifier struct {
	tracer trace.Tracer
	logger *slog.Logger
	sender Sender
}

type NotifierArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Sender Sender
}

func NewNotifier(args NotifierArgs) *Notifier {
	if args.Sender == nil {
		panic("mail sender cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &Notifier{
		tracer: args.Tracer,
		logger: args.Logger,
		sender: args.Sender,
	}
}

func (n *Notifier) Deliver(ctx context.Context, address, code string) error {
	const op = "mailer.Notifier.Deliver"
	ctx, span := n.tracer.Start(ctx, "Notifier.Deliver", trace.WithAttributes(
		attribute.String("mail.to", logging.RedactEmail(address)),
	))
	defer span.End()

	payload := VerificationCodePayload(address, code)
	if err := payload.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid mail payload")
		return errorx.Wrap(err, op)
	}

	if err := n.sender.SendMail(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send verification code")
		n.logger.WarnContext(ctx, "failed to send verification code",
			slog.String("to", logging.RedactEmail(address)),
			slog.Any("error", err),
		)
		return errorx.Wrap(err, op)
	}

	return nil
}

// LogSender only logs outgoing mail. The body is never logged since it
// carries the code.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(l *slog.Logger) *LogSender {
	if l == nil {
		l = logger
	}
	return &LogSender{logger: l}
}

func (s *LogSender) SendMail(ctx context.Context, payload Payload) error {
	s.logger.InfoContext(ctx, "mail delivery skipped",
		slog.String("to", logging.RedactEmail(payload.To)),
		slog.String("subject", payload.Subject),
	)
	return nil
}
