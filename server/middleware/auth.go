package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/auth/authctx"
	apperrors "github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/logger"
	"github.com/plan3/commonauth/observability"
)

const (
	// ContextKeyCredentials is the gin context key holding auth.Credentials.
	ContextKeyCredentials = "credentials"
	// ContextKeyStrategy is the gin context key holding the strategy name.
	ContextKeyStrategy = "auth_strategy"
)

// AuthOption configures Authenticate.
type AuthOption func(*authOptions)

type authOptions struct {
	metrics *observability.AuthMetrics
	log     *logger.Logger
}

// WithAuthMetrics records every authentication on m.
func WithAuthMetrics(m *observability.AuthMetrics) AuthOption {
	return func(o *authOptions) { o.metrics = m }
}

// WithAuthLogger logs strategy failures through log.
func WithAuthLogger(log *logger.Logger) AuthOption {
	return func(o *authOptions) { o.log = log }
}

// Authenticate authenticates requests against the registry's default policy
// merged with the route override. The policy is resolved per request, so
// strategies and defaults registered after the route still apply.
//
// Modes:
//   - required: missing credentials answer 401 UNAUTHORIZED, rejected ones 401 INVALID_TOKEN
//   - optional: missing credentials pass, rejected ones answer 401 INVALID_TOKEN
//   - try: the request always passes
//
// Any other strategy failure answers 500. On success the credentials are
// stored in the request context (authctx) and in the gin context.
func Authenticate(registry *auth.Registry, route *auth.PolicyOverride, opts ...AuthOption) gin.HandlerFunc {
	o := authOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	log := o.log.WithComponent("auth")

	return func(c *gin.Context) {
		policy, ok := registry.Resolve(route)
		if !ok {
			c.Next()
			return
		}

		res, err := authenticate(c.Request, registry, policy, o.metrics)
		switch {
		case err == nil:
			c.Request = c.Request.WithContext(authctx.WithCredentials(c.Request.Context(), res.Strategy, res.Credentials))
			c.Set(ContextKeyCredentials, res.Credentials)
			c.Set(ContextKeyStrategy, res.Strategy)
		case errors.Is(err, auth.ErrExpiredCredentials):
			if policy.Mode != auth.ModeTry {
				abort(c, apperrors.TokenExpired())
				return
			}
		case errors.Is(err, auth.ErrInvalidCredentials):
			if policy.Mode != auth.ModeTry {
				abort(c, apperrors.InvalidToken())
				return
			}
		case errors.Is(err, auth.ErrMissingCredentials):
			if policy.Mode == auth.ModeRequired {
				abort(c, apperrors.Unauthorized("Missing authentication."))
				return
			}
		default:
			log.WithContext(c.Request.Context()).Error("Authentication failed", logger.Fields(
				logger.FieldError, err.Error(),
				"strategies", policy.Strategies,
				"path", c.Request.URL.Path,
			))
			abort(c, apperrors.Internal(err))
			return
		}
		c.Next()
	}
}

// authenticate runs the registry inside an auth.authenticate span and
// records the attempt.
func authenticate(r *http.Request, registry *auth.Registry, policy auth.Policy, metrics *observability.AuthMetrics) (*auth.Result, error) {
	ctx, span := observability.StartSpan(r.Context(), observability.SpanAuthenticate)
	defer span.End()
	observability.SetSpanAttribute(ctx, "auth.strategies", policy.Strategies)
	observability.SetSpanAttribute(ctx, "auth.mode", string(policy.Mode))

	start := time.Now()
	res, err := registry.Authenticate(r.WithContext(ctx), policy)

	var strategy string
	if res != nil {
		strategy = res.Strategy
	}
	outcome := Outcome(err)
	observability.SetSpanAttribute(ctx, observability.AttrStrategy, strategy)
	observability.SetSpanAttribute(ctx, observability.AttrOutcome, outcome)
	if outcome == observability.OutcomeError {
		observability.SetSpanError(ctx, err)
	}
	metrics.RecordAttempt(ctx, strategy, outcome, time.Since(start))
	return res, err
}

// Outcome classifies an authentication result for spans and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, auth.ErrInvalidCredentials):
		return observability.OutcomeInvalid
	case errors.Is(err, auth.ErrMissingCredentials):
		return observability.OutcomeMissing
	default:
		return observability.OutcomeError
	}
}
