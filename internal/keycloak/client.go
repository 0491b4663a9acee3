package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dnsforyou/idgw/internal/observability"
)

const (
	// maxResponseBody limits how much of a provider response is read.
	maxResponseBody = 1 << 20

	tracerName = "github.com/dnsforyou/idgw/internal/keycloak"
)

// providerResponse is the raw result of a provider call that completed at the
// HTTP level, whatever its status code.
type providerResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ok reports whether the response carries a 2xx status.
func (r *providerResponse) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// decode unmarshals the response body into v. An empty body leaves v at its
// zero value.
func (r *providerResponse) decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// errorText returns the response body for failure messages, falling back to
// the given text when the body is empty.
func (r *providerResponse) errorText(fallback string) string {
	body := strings.TrimSpace(string(r.Body))
	if body != "" {
		return body
	}
	return fallback
}

// restClient executes HTTP requests against the provider's token endpoint and
// admin REST surface.
type restClient struct {
	authority  string
	realm      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     observability.Logger
}

// newRESTClient builds a restClient from the gateway configuration.
func newRESTClient(cfg *Config, logger observability.Logger) *restClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var breaker *gobreaker.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breaker = newBreaker(cfg.CircuitBreaker, logger)
	}

	return &restClient{
		authority:  strings.TrimRight(cfg.Authority, "/"),
		realm:      cfg.Realm,
		httpClient: httpClient,
		breaker:    breaker,
		logger:     logger,
	}
}

// newBreaker creates a circuit breaker tripped by transport failures only.
func newBreaker(cfg CircuitBreakerConfig, logger observability.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	thresholdU32 := uint32(threshold) //nolint:gosec // bounded above by config validation

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "keycloak",
		MaxRequests: thresholdU32,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= thresholdU32 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})
}

// tokenURL is the realm's OpenID Connect token endpoint.
func (c *restClient) tokenURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", c.authority, c.realm)
}

// introspectURL is the realm's token introspection endpoint.
func (c *restClient) introspectURL() string {
	return c.tokenURL() + "/introspect"
}

// logoutURL is the realm's logout endpoint.
func (c *restClient) logoutURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/logout", c.authority, c.realm)
}

// adminURL joins the admin REST base with the given path suffix.
func (c *restClient) adminURL(suffix string) string {
	return fmt.Sprintf("%s/admin/realms/%s%s", c.authority, c.realm, suffix)
}

// postForm sends a form-encoded POST to the given URL.
func (c *restClient) postForm(ctx context.Context, rawURL string, form url.Values) (*providerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.send(req)
}

// doAdmin sends a bearer-authenticated request to the admin REST surface.
// A non-nil body is JSON encoded.
func (c *restClient) doAdmin(ctx context.Context, method, suffix, token string, body any) (*providerResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.adminURL(suffix), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.send(req)
}

// send executes the request, recording metrics and a span. Transport errors
// are wrapped in ErrRequestFailed; any completed HTTP exchange, including
// non-2xx, is returned as a providerResponse.
func (c *restClient) send(req *http.Request) (*providerResponse, error) {
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(req.Context(), "keycloak "+req.Method+" "+req.URL.Path)
	defer span.End()
	req = req.WithContext(ctx)
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	)

	resp, err := c.roundTrip(req)
	if err != nil {
		c.observe(req.Method, metricResultNetworkError, start)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.observe(req.Method, metricResultNetworkError, start)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrRequestFailed, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	result := metricResultSuccess
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = metricResultHTTPError
	}
	c.observe(req.Method, result, start)

	return &providerResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   bodyBytes,
	}, nil
}

// roundTrip sends the request through the circuit breaker when one is
// configured.
func (c *restClient) roundTrip(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.httpClient.Do(req) //nolint:bodyclose // closed by the caller
	})
	if err != nil {
		return nil, err
	}
	return res.(*http.Response), nil
}

func (c *restClient) observe(method, result string, start time.Time) {
	providerRequestsTotal.WithLabelValues(method, result).Inc()
	providerRequestDuration.WithLabelValues(method, result).Observe(time.Since(start).Seconds())
}
