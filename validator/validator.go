package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fabric-testbed/system-service-utils/jwks"
)

const (
	tracerName = "github.com/fabric-testbed/system-service-utils/validator"
	refreshKey = "jwks"
)

// KeySource produces the current key set. *jwks.Provider implements it.
type KeySource interface {
	Fetch(ctx context.Context) (jwks.KeySet, error)
}

// keyCache is replaced as a whole on every successful refresh; keys and
// fetchedAt are never updated separately.
type keyCache struct {
	keys      jwks.KeySet
	fetchedAt time.Time
}

// Validator validates JWTs against keys fetched from a JWKS endpoint. Keys
// are fetched lazily on first use and again whenever the refresh period has
// elapsed. It is safe for concurrent use.
//
// Callers that find the cache empty or stale while a refresh is in flight
// wait for that refresh and share its result, success or failure. A failed
// refresh leaves the previous keys in place.
type Validator struct {
	source           KeySource
	httpClient       *http.Client
	refreshPeriod    *time.Duration // nil: never refresh after the first fetch
	audience         *string        // nil: audience not checked
	allowedClockSkew time.Duration
	verifyExpiration bool
	now              func() time.Time

	logger  Logger
	metrics Metrics
	tracer  trace.Tracer

	mu      sync.RWMutex
	cache   *keyCache // nil until the first successful fetch
	refresh singleflight.Group
}

// New sets up a new Validator for the JWKS document at jwksURL.
// jwksURL may be empty when WithKeySource is given.
//
// Example:
//
//	v, err := validator.New(
//	    "https://cilogon.org/oauth2/certs",
//	    validator.WithRefreshPeriod(10*time.Minute),
//	    validator.WithAudience("cilogon:/client_id/1234567890"),
//	)
func New(jwksURL string, opts ...Option) (*Validator, error) {
	v := &Validator{
		now:     time.Now,
		logger:  nopLogger{},
		metrics: &NoopMetrics{},
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.source != nil {
		return v, nil
	}

	if jwksURL == "" {
		return nil, errors.New("JWKS URL is required but was empty")
	}

	parsed, err := url.Parse(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}

	providerOpts := []jwks.ProviderOption{jwks.WithURL(parsed)}
	if v.httpClient != nil {
		providerOpts = append(providerOpts, jwks.WithCustomClient(v.httpClient))
	}

	provider, err := jwks.NewProvider(providerOpts...)
	if err != nil {
		return nil, err
	}
	v.source = provider

	return v, nil
}

// Validate runs tokenString through the validation pipeline and returns
// exactly one outcome. Expiration is only checked when verifyExpiration is
// true; the audience only when one was configured.
//
// Validate never returns a separate error: every failure is reported as a
// non-Valid Outcome.
func (v *Validator) Validate(ctx context.Context, tokenString string, verifyExpiration bool) Outcome {
	outcome, _ := v.run(ctx, tokenString, verifyExpiration)
	return outcome
}

// ValidateToken validates tokenString using the expiration setting from
// WithExpirationCheck. It returns *ValidatedClaims for a Valid token and a
// *ValidationError otherwise, which makes it usable as the validation
// function of the middleware packages.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (any, error) {
	outcome, token := v.run(ctx, tokenString, v.verifyExpiration)
	if !outcome.Valid() {
		return nil, &ValidationError{Code: outcome.Code, Details: outcome.Err}
	}
	return newValidatedClaims(token), nil
}

// Refresh fetches the key set now, regardless of staleness. On failure the
// previous keys are kept.
func (v *Validator) Refresh(ctx context.Context) error {
	_, err, _ := v.refresh.Do(refreshKey, func() (any, error) {
		return v.fetch(context.WithoutCancel(ctx))
	})
	return err
}

// Keys returns the sorted key IDs currently cached, or nil if no key set
// has been fetched yet.
func (v *Validator) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.cache == nil {
		return nil
	}
	return v.cache.keys.KeyIDs()
}

func (v *Validator) run(ctx context.Context, tokenString string, verifyExpiration bool) (Outcome, jwt.Token) {
	ctx, span := v.tracer.Start(ctx, "jwt.validate")
	defer span.End()

	outcome, token := v.validate(ctx, tokenString, verifyExpiration)

	span.SetAttributes(
		attribute.String("jwt.result", outcome.Code.String()),
		attribute.Bool("jwt.verify_expiration", verifyExpiration),
	)
	if !outcome.Valid() {
		span.SetStatus(codes.Error, outcome.Message())
	}
	v.metrics.IncCounter(MetricValidationTotal, map[string]string{"code": outcome.Code.String()})

	return outcome, token
}

func (v *Validator) validate(ctx context.Context, tokenString string, verifyExpiration bool) (Outcome, jwt.Token) {
	keys, err := v.keySet(ctx)
	if err != nil {
		return fetchOutcome(err), nil
	}

	header, err := parseHeader(tokenString)
	if err != nil {
		return Outcome{Code: UnparsableToken, Err: err}, nil
	}
	if !header.HasKeyID {
		return Outcome{Code: UnspecifiedKey}, nil
	}
	if header.Algorithm == "" {
		return Outcome{Code: UnspecifiedAlgorithm}, nil
	}

	key, ok := keys.Lookup(header.KeyID)
	if !ok {
		v.logger.Debugf("token references unknown key %q", header.KeyID)
		return Outcome{Code: UnknownKey}, nil
	}

	token, err := v.verify(tokenString, header.Algorithm, key, verifyExpiration)
	if err != nil {
		return Outcome{Code: Invalid, Err: err}, nil
	}

	return Outcome{Code: Valid}, token
}

// verify checks the signature with exactly key and exactly the algorithm
// named in the header, then the claims. nbf and iat are always checked; exp
// only when verifyExpiration is set.
func (v *Validator) verify(tokenString, algorithm string, key jwk.Key, verifyExpiration bool) (jwt.Token, error) {
	if published, ok := key.Get(jwk.AlgorithmKey); ok {
		if keyAlg := fmt.Sprint(published); keyAlg != "" && keyAlg != algorithm {
			return nil, fmt.Errorf("token algorithm %q does not match the key algorithm %q", algorithm, keyAlg)
		}
	}

	token, err := jwt.ParseString(
		tokenString,
		jwt.WithKey(jwa.SignatureAlgorithm(algorithm), key),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, err
	}

	validateOpts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.allowedClockSkew),
		jwt.WithResetValidators(true),
		jwt.WithValidator(jwt.IsNbfValid()),
		jwt.WithValidator(jwt.IsIssuedAtValid()),
	}
	if verifyExpiration {
		validateOpts = append(validateOpts, jwt.WithValidator(jwt.IsExpirationValid()))
	}
	if v.audience != nil {
		validateOpts = append(validateOpts, jwt.WithAudience(*v.audience))
	}
	if err := jwt.Validate(token, validateOpts...); err != nil {
		return nil, err
	}

	return token, nil
}

// keySet returns the cached keys, refreshing them first if the cache is
// empty or stale.
func (v *Validator) keySet(ctx context.Context) (jwks.KeySet, error) {
	v.mu.RLock()
	cache := v.cache
	v.mu.RUnlock()

	if cache != nil && !v.stale(cache) {
		return cache.keys, nil
	}

	result, err, _ := v.refresh.Do(refreshKey, func() (any, error) {
		// A refresh may have completed between the read above and here.
		v.mu.RLock()
		current := v.cache
		v.mu.RUnlock()
		if current != nil && current != cache && !v.stale(current) {
			return current, nil
		}
		return v.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	return result.(*keyCache).keys, nil
}

func (v *Validator) stale(cache *keyCache) bool {
	if v.refreshPeriod == nil {
		return false
	}
	return !v.now().Before(cache.fetchedAt.Add(*v.refreshPeriod))
}

// fetch retrieves a new key set and swaps it into the cache. Callers must
// hold the refresh group. The fetch is shared by every waiter, so ctx must
// not carry the cancellation of a single request; the HTTP client timeout
// bounds it instead.
func (v *Validator) fetch(ctx context.Context) (*keyCache, error) {
	ctx, span := v.tracer.Start(ctx, "jwks.refresh")
	defer span.End()

	start := time.Now()
	keys, err := v.source.Fetch(ctx)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		v.metrics.IncCounter(MetricFetchTotal, map[string]string{"result": "error"})
		v.metrics.ObserveHistogram(MetricFetchDuration, duration.Seconds(), map[string]string{"result": "error"})
		v.logger.Warnf("failed to refresh JWKS after %s: %v", duration, err)
		return nil, err
	}
	if keys == nil {
		keys = jwks.KeySet{}
	}

	fresh := &keyCache{keys: keys, fetchedAt: v.now()}

	v.mu.Lock()
	v.cache = fresh
	v.mu.Unlock()

	span.SetAttributes(attribute.Int("jwks.keys", len(keys)))
	v.metrics.IncCounter(MetricFetchTotal, map[string]string{"result": "success"})
	v.metrics.ObserveHistogram(MetricFetchDuration, duration.Seconds(), map[string]string{"result": "success"})
	v.metrics.SetGauge(MetricCachedKeys, float64(len(keys)), nil)
	v.logger.Infof("refreshed JWKS in %s: %d keys", duration, len(keys))

	return fresh, nil
}

// fetchOutcome maps a key source error onto its result code. Non-200
// responses carry no detail; other failures carry the underlying error.
func fetchOutcome(err error) Outcome {
	var decodeErr *jwks.DecodeError
	if errors.As(err, &decodeErr) {
		return Outcome{Code: UnableToDecodeKeys, Err: decodeErr.Err}
	}

	var statusErr *jwks.StatusError
	if errors.As(err, &statusErr) {
		return Outcome{Code: UnableToFetchKeys}
	}

	var fetchErr *jwks.FetchError
	if errors.As(err, &fetchErr) {
		return Outcome{Code: UnableToFetchKeys, Err: fetchErr.Err}
	}

	if errors.Is(err, jwks.ErrUnableToDecodeKeys) {
		return Outcome{Code: UnableToDecodeKeys, Err: err}
	}
	return Outcome{Code: UnableToFetchKeys, Err: err}
}
