// Package fetcher retrieves raw markup for retailer pages.
//
// A failed fetch is never an error for the caller: Fetch returns false and the
// caller treats the page as having zero listings.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/lib/restyutil"
	libtelemetry "tcgwatch/lib/telemetry"
	"tcgwatch/lib/textutil"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_fetch   = "client.fetch"
	report_client_retry   = "client.retry"
	report_client_blocked = "client.blocked"
)

var tracer = otel.Tracer("tcgwatch.fetcher")

// API is the contract every page fetcher implements.
type API interface {
	// Fetch returns the markup of `url`, or false if it could not be retrieved.
	Fetch(ctx context.Context, url string) (string, bool)
}

const (
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 5 * time.Second
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// DefaultBlockTerms are phrases that only show up on bot challenge pages.
var DefaultBlockTerms = []string{
	"captcha",
	"access denied",
	"are you a robot",
	"robot check",
	"unusual traffic",
	"pardon our interruption",
	"verify you are human",
}

type Options struct {
	UserAgent string
	// MaxAttempts is the total number of attempts per url, defaults to 3.
	MaxAttempts int
	// Timeout bounds a single attempt, defaults to 10s.
	Timeout time.Duration
	// BackoffBase is the wait before the first retry, it doubles on every
	// retry up to BackoffMax. Defaults to 1s and 8s.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// MinDelay and MaxDelay bound the random delay between two requests made
	// to the same host, defaults to DefaultMinDelay and DefaultMaxDelay when
	// both are zero. A negative value disables pacing.
	MinDelay time.Duration
	MaxDelay time.Duration
	// MinBodyBytes is the smallest body that is not treated as a block page,
	// defaults to 512.
	MinBodyBytes int
	BlockTerms   []string
	// Dump receives a copy of every exchange when set.
	Dump restyutil.Output
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.BackoffMax < o.BackoffBase {
		o.BackoffMax = o.BackoffBase * 8
	}
	switch {
	case o.MinDelay < 0 || o.MaxDelay < 0:
		o.MinDelay, o.MaxDelay = 0, 0
	case o.MinDelay == 0 && o.MaxDelay == 0:
		o.MinDelay, o.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.MinBodyBytes <= 0 {
		o.MinBodyBytes = 512
	}
	if len(o.BlockTerms) == 0 {
		o.BlockTerms = DefaultBlockTerms
	}
	return o
}

// Client is the resty backed implementation of API.
type Client struct {
	http   *resty.Client
	opts   Options
	pacing *hostPacing
	tel    telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("fetcher", tel)
	opts = opts.withDefaults()

	c := &Client{
		opts:   opts,
		pacing: newHostPacing(opts.MinDelay, opts.MaxDelay),
		tel:    tel,
	}

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeaders(map[string]string{
		"user-agent":                opts.UserAgent,
		"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"accept-language":           "en-US,en;q=0.5",
		"upgrade-insecure-requests": "1",
	})

	httpClient.SetRetryCount(opts.MaxAttempts - 1)
	httpClient.SetRetryWaitTime(opts.BackoffBase)
	httpClient.SetRetryMaxWaitTime(opts.BackoffMax)
	httpClient.AddRetryCondition(c.shouldRetry)
	httpClient.AddRetryHook(c.onRetry)

	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.pacing.wait(req.Context(), req.URL)
	})
	telemetry.InstrumentResty(httpClient, tel)
	libtelemetry.TraceResty(httpClient, "tcgwatch.fetcher")
	restyutil.Dump(httpClient, opts.Dump)

	c.http = httpClient
	return c
}

func blockedStatus(status int) bool {
	return status == http.StatusForbidden ||
		status == http.StatusTooManyRequests ||
		status == http.StatusServiceUnavailable
}

func (c *Client) shouldRetry(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	if blockedStatus(res.StatusCode()) {
		return false
	}
	return res.IsError()
}

func (c *Client) onRetry(res *resty.Response, err error) {
	if res == nil || res.Request == nil {
		c.tel.ReportWarning(report_client_retry, err)
		return
	}
	attempt := res.Request.Attempt
	if attempt >= c.opts.MaxAttempts {
		return
	}
	wait := c.opts.BackoffBase << (attempt - 1)
	if wait > c.opts.BackoffMax {
		wait = c.opts.BackoffMax
	}
	reason := any(err)
	if err == nil {
		reason = res.Status()
	}
	c.tel.ReportWarning(
		report_client_retry,
		res.Request.URL,
		reason,
		fmt.Sprintf("attempt %d/%d, retrying in ~%s", attempt, c.opts.MaxAttempts, wait),
	)
}

// blockReason returns a non-empty string if the body looks like a bot challenge.
func (c *Client) blockReason(body string) string {
	if len(body) < c.opts.MinBodyBytes {
		return fmt.Sprintf("body of %d bytes is below %d", len(body), c.opts.MinBodyBytes)
	}
	term, found := textutil.FirstContained(textutil.Fold(body), c.opts.BlockTerms)
	if found {
		return fmt.Sprintf("body contains %q", term)
	}
	return ""
}

func (c *Client) Fetch(ctx context.Context, url string) (string, bool) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("failed after %d attempts: %w", c.opts.MaxAttempts, err),
			url,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return "", false
	}

	if blockedStatus(res.StatusCode()) {
		c.tel.ReportWarning(report_client_blocked, url, res.Status())
		span.SetStatus(codes.Error, "blocked")
		return "", false
	}
	if res.IsError() {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("failed after %d attempts: %s", c.opts.MaxAttempts, res.Status()),
			url,
		)
		span.SetStatus(codes.Error, res.Status())
		return "", false
	}

	body := res.String()
	if reason := c.blockReason(body); reason != "" {
		c.tel.ReportWarning(report_client_blocked, url, reason)
		span.SetStatus(codes.Error, "blocked")
		return "", false
	}

	span.SetAttributes(attribute.Int("body_bytes", len(body)))
	return body, true
}
