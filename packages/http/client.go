package http

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout applies to requests that do not set their own timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
)

type Client struct {
	rc             *resty.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	rateLimit      float64
	limiter        *rate.Limiter
	defaultHeaders map[string]string
	logger         *zap.Logger
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.rc = resty.New().
		SetLogger(c.logger.Sugar()).
		SetHeaders(c.defaultHeaders).
		SetAllowGetMethodPayload(true)

	c.rc.SetRedirectPolicy(resty.RedirectPolicyFunc(func(_ *http.Request, via []*http.Request) error {
		if !c.followRedirect || len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}))

	if !c.validateSSL {
		c.rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	if c.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.rateLimit), 1)
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithRateLimit paces requests to at most rps per second. Zero disables
// pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithDefaultHeaders sets headers sent with every request. Request headers
// with the same name take precedence.
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Timeout returns the timeout used for requests that do not set one.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do sends req and returns the response. Transport failures are returned
// as *NetworkError, *TimeoutError or *RequestError. A response with any
// status code is a success at this level.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, contentType, err := req.encodeBody()
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	r := c.rc.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetQueryParams(req.Query)
	if body != nil {
		r.SetBody(body)
		if contentType != "" && req.Header("Content-Type") == "" {
			r.SetHeader("Content-Type", contentType)
		}
	}

	c.logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Duration("timeout", timeout),
	)

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	duration := time.Since(start)

	if err != nil {
		classified := classifyError(err, timeout)
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(classified),
		)
		return nil, classified
	}

	headers := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}

	raw := resp.Body()
	c.logger.Debug("received response",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", duration),
	)

	return &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    headers,
		Body:       DecodeBody(raw),
		RawBody:    raw,
		Duration:   duration,
	}, nil
}

// IsTransportError reports whether err came from a failed round trip
// rather than from building the request.
func IsTransportError(err error) bool {
	var netErr *NetworkError
	var timeoutErr *TimeoutError
	var reqErr *RequestError
	return errors.As(err, &netErr) || errors.As(err, &timeoutErr) || errors.As(err, &reqErr)
}
