package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cidrfence/cidrfence/internal/observability"
	"github.com/cidrfence/cidrfence/internal/policy"
)

// tracerName identifies spans created by the access middleware.
const tracerName = "github.com/cidrfence/cidrfence/internal/middleware"

// DeniedHandler is invoked for denied requests instead of the default
// status response.
type DeniedHandler func(c *gin.Context, path, address string)

// AccessControl is the gin middleware wiring a policy evaluator into
// the request path.
type AccessControl struct {
	evaluator *policy.Evaluator
	extractor *ClientIPExtractor
	logger    observability.Logger
	tracer    trace.Tracer

	deniedStatus  int
	deniedHandler DeniedHandler
}

// AccessControlOption is a functional option for the middleware.
type AccessControlOption func(*AccessControl)

// WithAccessLogger sets the logger.
func WithAccessLogger(logger observability.Logger) AccessControlOption {
	return func(a *AccessControl) {
		a.logger = logger
	}
}

// WithClientIPExtractor sets the client IP extractor; the default
// trusts no proxies beyond the forwarded header itself.
func WithClientIPExtractor(extractor *ClientIPExtractor) AccessControlOption {
	return func(a *AccessControl) {
		a.extractor = extractor
	}
}

// WithDeniedStatus sets the HTTP status returned for denied requests.
// The default is 403 Forbidden.
func WithDeniedStatus(status int) AccessControlOption {
	return func(a *AccessControl) {
		a.deniedStatus = status
	}
}

// WithDeniedHandler sets a custom handler for denied requests,
// replacing the default status response.
func WithDeniedHandler(handler DeniedHandler) AccessControlOption {
	return func(a *AccessControl) {
		a.deniedHandler = handler
	}
}

// NewAccessControl creates the access-control middleware around the
// given evaluator.
func NewAccessControl(evaluator *policy.Evaluator, opts ...AccessControlOption) *AccessControl {
	a := &AccessControl{
		evaluator:    evaluator,
		extractor:    NewClientIPExtractor(nil),
		logger:       observability.NopLogger(),
		tracer:       otel.Tracer(tracerName),
		deniedStatus: http.StatusForbidden,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Handler returns the gin handler enforcing the access policy.
//
// A request whose client address cannot be parsed is rejected with
// 400 Bad Request; the evaluator never sees it and nothing is cached
// for it. This is the single, documented handling of malformed
// addresses at this boundary.
func (a *AccessControl) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderXRequestID, requestID)

		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)

		path := c.Request.URL.Path
		address := a.extractor.Extract(c.Request)

		ctx, span := a.tracer.Start(ctx, "access.evaluate",
			trace.WithAttributes(
				attribute.String("access.path", path),
				attribute.String("access.address", address),
			),
		)
		allowed, err := a.evaluator.Evaluate(ctx, path, address)
		span.SetAttributes(attribute.Bool("access.allowed", allowed))
		span.End()

		logger := a.logger.WithContext(ctx)

		if err != nil {
			if errors.Is(err, policy.ErrInvalidAddress) {
				logger.Warn("unparseable client address",
					observability.String("address", address),
					observability.String("path", path),
				)
				c.AbortWithStatus(http.StatusBadRequest)
				return
			}
			logger.Error("access evaluation failed",
				observability.Error(err),
			)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if !allowed {
			logger.Info("access denied",
				observability.String("path", path),
				observability.String("address", address),
			)
			if a.deniedHandler != nil {
				a.deniedHandler(c, path, address)
				c.Abort()
				return
			}
			c.AbortWithStatus(a.deniedStatus)
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
