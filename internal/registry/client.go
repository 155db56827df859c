package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/config"
)

const (
	instrumentationName = "github.com/Additional-Code/fornecedor/registry"
	cnpjPath            = "/cnpj/v1/"
	maxBodyBytes        = 1 << 20
	logBodyBytes        = 512
)

var tracer = otel.Tracer(instrumentationName)

var (
	// ErrNotFound means the registry answered that the CNPJ does not exist.
	ErrNotFound = errors.New("cnpj not found in registry")
	// ErrUnavailable covers every other failed lookup: transport errors, non-2xx answers and unreadable payloads.
	ErrUnavailable = errors.New("registry unavailable")
)

// Result is the outcome of a lookup: either a company, or absent with the cause.
type Result struct {
	Company *Company
	Cause   error
}

// Found reports whether the lookup produced a company.
func (r Result) Found() bool {
	return r.Company != nil
}

// Client queries the BrasilAPI CNPJ registry.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
	lookups   metric.Int64Counter
}

// NewClient builds a client from the registry settings.
func NewClient(cfg config.Registry, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("registry")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !cfg.VerifyTLS, //nolint:gosec // operator controlled through BRASILAPI_VERIFY_SSL
	}

	lookups, err := otel.Meter(instrumentationName).Int64Counter(
		"registry.lookups",
		metric.WithDescription("CNPJ registry lookups by outcome"),
	)
	if err != nil {
		logger.Warn("registry lookup counter unavailable", zap.Error(err))
		lookups = noop.Int64Counter{}
	}

	if !cfg.VerifyTLS {
		logger.Warn("registry TLS verification disabled", zap.String("base_url", cfg.BaseURL))
	}
	logger.Debug("registry client configured",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("retry_attempts", cfg.RetryAttempts),
	)

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		logger:  logger,
		lookups: lookups,
	}
}

// Lookup fetches the company registered under document. Failures never
// surface as errors; they come back as an absent Result carrying the cause.
func (c *Client) Lookup(ctx context.Context, document string) Result {
	digits := NormalizeDocument(document)

	ctx, span := tracer.Start(ctx, "Registry.Lookup", trace.WithAttributes(
		attribute.String("registry.document", digits),
	))
	defer span.End()

	company, err := c.fetch(ctx, digits)
	switch {
	case err == nil:
		c.record(ctx, "found")
		c.logger.Info("registry lookup succeeded",
			zap.String("document", digits),
			zap.Stringp("legal_name", company.Fields.LegalName),
		)
		return Result{Company: company}
	case errors.Is(err, ErrNotFound):
		c.record(ctx, "not_found")
		span.SetAttributes(attribute.Bool("registry.not_found", true))
	default:
		c.record(ctx, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return Result{Cause: err}
}

func (c *Client) fetch(ctx context.Context, digits string) (*Company, error) {
	endpoint := c.baseURL + cnpjPath + url.PathEscape(digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("registry request could not be built", zap.String("document", digits), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("registry request failed", zap.String("document", digits), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Error("registry response unreadable", zap.String("document", digits), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("registry returned non-success status",
			zap.String("document", digits),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body, logBodyBytes)),
		)
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload cnpjResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error("registry payload malformed", zap.String("document", digits), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return payload.company(), nil
}

func (c *Client) record(ctx context.Context, outcome string) {
	c.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
