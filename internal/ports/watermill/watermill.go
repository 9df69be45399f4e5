package watermill

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	verificationapp "gitlab.com/ucmsv2/emailverify/internal/application/verification"
	"gitlab.com/ucmsv2/emailverify/pkg/watermillx"
)

type Port struct {
	eventProcessor *cqrs.EventProcessor
}

type AppEventHandlers struct {
	Verification verificationapp.Event
}

func NewPort(router *message.Router, conn *pgxpool.Pool, wmlogger watermill.LoggerAdapter) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessor(router, conn, wmlogger)
	if err != nil {
		return nil, err
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

func NewPortForTest(router *message.Router, conn *pgxpool.Pool, wmlogger watermill.LoggerAdapter) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessorForTests(router, conn, wmlogger)
	if err != nil {
		return nil, err
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

// NewRouter builds the router consuming the outbox. Failed handlers are
// retried a few times before the message is nacked.
func NewRouter(wmlogger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmlogger,
		}.Middleware,
	)

	return router, nil
}

func (p *Port) Register(handlers AppEventHandlers) error {
	err := p.eventProcessor.AddHandlers(
		cqrs.NewEventHandler("VerificationOnMemberRemoved", handlers.Verification.MemberRemoved.Handle),
	)
	if err != nil {
		return fmt.Errorf("failed to add event handlers: %w", err)
	}

	return nil
}
