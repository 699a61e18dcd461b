package jwtmiddleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fabric-testbed/system-service-utils/core"
)

// GinClaimsKey is the gin.Context key validated claims are stored under, in
// addition to the request context.
const GinClaimsKey = "jwt"

// GinErrorHandler is the Gin counterpart of ErrorHandler. It must abort the
// context.
type GinErrorHandler func(c *gin.Context, err error)

// GinOption configures the GinJWTMiddleware.
type GinOption func(*GinJWTMiddleware) error

// GinJWTMiddleware authenticates Gin requests with a bearer JWT.
type GinJWTMiddleware struct {
	core              *core.Core
	errorHandler      GinErrorHandler
	tokenExtractor    TokenExtractor
	validateOnOptions bool

	credentialsOptional bool
	logger              Logger
}

// NewGin constructs a new GinJWTMiddleware instance with the supplied options.
// It requires a ValidateToken function to be passed in, so it can
// properly validate tokens.
func NewGin(validateToken ValidateToken, opts ...GinOption) (*GinJWTMiddleware, error) {
	if validateToken == nil {
		return nil, ErrValidateTokenNil
	}

	m := &GinJWTMiddleware{
		errorHandler:      DefaultGinErrorHandler,
		tokenExtractor:    AuthHeaderTokenExtractor,
		validateOnOptions: true,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	coreOpts := []core.Option{
		core.WithValidator(validateToken),
		core.WithCredentialsOptional(m.credentialsOptional),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}
	m.core = c

	return m, nil
}

// GinWithErrorHandler sets the handler called when errors occur during JWT
// validation. Default: DefaultGinErrorHandler
func GinWithErrorHandler(h GinErrorHandler) GinOption {
	return func(m *GinJWTMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// GinWithTokenExtractor sets the function to extract the JWT from the request.
func GinWithTokenExtractor(e TokenExtractor) GinOption {
	return func(m *GinJWTMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// GinWithCredentialsOptional sets whether credentials are optional.
func GinWithCredentialsOptional(value bool) GinOption {
	return func(m *GinJWTMiddleware) error {
		m.credentialsOptional = value
		return nil
	}
}

// GinWithValidateOnOptions sets whether OPTIONS requests should have their
// JWT validated.
func GinWithValidateOnOptions(value bool) GinOption {
	return func(m *GinJWTMiddleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// GinWithLogger sets a logger for the middleware.
func GinWithLogger(logger Logger) GinOption {
	return func(m *GinJWTMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// DefaultGinErrorHandler aborts with the status and body of ResponseFor.
func DefaultGinErrorHandler(c *gin.Context, err error) {
	status, response := ResponseFor(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	c.AbortWithStatusJSON(status, response)
}

// CheckJWTGin returns the gin.HandlerFunc that validates the request's JWT.
func (m *GinJWTMiddleware) CheckJWTGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, err := m.tokenExtractor(c.Request)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that the
			// tokenExtractor had an error and _not_ that the token was missing.
			m.errorHandler(c, fmt.Errorf("error extracting token: %w", err))
			return
		}

		claims, err := m.core.CheckToken(c.Request.Context(), token)
		if err != nil {
			m.errorHandler(c, err)
			return
		}

		if claims != nil {
			c.Request = c.Request.Clone(core.SetClaims(c.Request.Context(), claims))
			c.Set(GinClaimsKey, claims)
		}
		c.Next()
	}
}
