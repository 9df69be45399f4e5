package middlewares

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ARUMANDESU/validation"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/ucmsv2/emailverify/pkg/ctxs"
	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/httpx"
)

var (
	tracer = otel.Tracer("emailverify/internal/ports/http/middlewares")
	logger = otelslog.NewLogger("emailverify/internal/ports/http/middlewares")
)

const (
	TokenIssuer     = "emailverify"
	DefaultTokenTTL = 24 * time.Hour
)

// Claims of the bearer tokens held by the platform bridge and administrators.
type Claims struct {
	jwt.RegisteredClaims
	Role ctxs.Role `json:"role"`
}

// NewToken signs a token for subject with role. It backs the token CLI and
// tests.
func NewToken(secret []byte, subject string, role ctxs.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

type Middleware struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	secret     []byte
	errhandler *httpx.ErrorHandler
}

type Args struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Secret     []byte
	Errhandler *httpx.ErrorHandler
}

func NewMiddleware(args Args) *Middleware {
	m := &Middleware{
		tracer:     args.Tracer,
		logger:     args.Logger,
		secret:     args.Secret,
		errhandler: args.Errhandler,
	}

	if m.tracer == nil {
		m.tracer = tracer
	}
	if m.logger == nil {
		m.logger = logger
	}
	if len(m.secret) == 0 {
		panic("secret key is required for auth middleware")
	}
	if m.errhandler == nil {
		m.errhandler = httpx.NewErrorHandler()
	}
	return m
}

// Auth accepts an HS256 bearer token issued by this service and stores the
// caller in the request context.
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "AuthMiddleware")
		defer span.End()

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			m.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "missing bearer token")
			return
		}

		err := validation.Validate(raw, validation.Required, validation.Length(1, 2000))
		if err != nil {
			m.errhandler.HandleError(w, r, span, errorx.NewInvalidCredentials().WithCause(err), "invalid bearer token")
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return m.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(TokenIssuer),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			m.errhandler.HandleError(w, r, span, errorx.NewInvalidCredentials().WithCause(err), "failed to parse bearer token")
			return
		}
		if !token.Valid {
			err = errorx.NewInvalidCredentials().WithCause(errors.New("invalid bearer token"))
			m.errhandler.HandleError(w, r, span, err, "invalid bearer token")
			return
		}
		if claims.Subject == "" {
			err = errorx.NewInvalidCredentials().WithCause(errors.New("subject is empty"))
			m.errhandler.HandleError(w, r, span, err, "subject is empty in bearer token")
			return
		}
		if claims.Role != ctxs.RoleBridge && claims.Role != ctxs.RoleAdmin {
			err = errorx.NewInvalidCredentials().WithCause(fmt.Errorf("unknown role %q", claims.Role))
			m.errhandler.HandleError(w, r, span, err, "unknown role in bearer token")
			return
		}

		span.SetAttributes(
			attribute.String("principal.subject", claims.Subject),
			attribute.String("principal.role", string(claims.Role)),
		)
		ctx = ctxs.WithPrincipal(ctx, &ctxs.Principal{
			Subject: claims.Subject,
			Role:    claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets through callers holding role. Administrators pass every
// check.
func (m *Middleware) RequireRole(role ctxs.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := ctxs.PrincipalFromCtx(r.Context())
			if !ok {
				span := trace.SpanFromContext(r.Context())
				m.errhandler.HandleError(w, r, span, errorx.NewUnauthorized(), "no principal in context")
				return
			}
			if p.Role != role && !p.IsAdmin() {
				span := trace.SpanFromContext(r.Context())
				m.errhandler.HandleError(w, r, span, errorx.NewForbidden(), "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
