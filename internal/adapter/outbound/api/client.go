// Package api is the single choke point for every backend call. The Client
// resolves the current bearer token from the session context at call time,
// builds consistent headers, dispatches the request, and normalizes
// success and error outcomes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mealsfit/mealsfit-cli/internal/domain/session"
)

// defaultAPIPrefix is prepended to every resource path.
const defaultAPIPrefix = "/api"

// Client is the API Gateway. It holds an explicit reference to the session
// context, so credential resolution is a visible dependency rather than a
// global lookup, and the token is read fresh on every call.
type Client struct {
	baseURL    string
	apiPrefix  string
	timeout    time.Duration
	session    *session.Context
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// NewClient creates a Gateway bound to the given session context.
// The base URL defaults to the MEALSFIT_API_BASE_URL environment variable;
// options override the defaults.
func NewClient(sess *session.Context, opts ...Option) *Client {
	c := &Client{
		baseURL:   os.Getenv("MEALSFIT_API_BASE_URL"),
		apiPrefix: defaultAPIPrefix,
		timeout:   30 * time.Second,
		session:   sess,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// Do dispatches a JSON request to the backend. body, when non-nil, is
// JSON-serialized; the request declares Content-Type: application/json
// either way. On a 2xx response with a JSON content type the body is
// decoded into result; a non-JSON body is assigned when result is *string
// and rejected for any other result type.
// A non-2xx response returns an *APIError with a best-effort message;
// a request that produced no response returns a *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	return c.dispatch(ctx, method, path, bodyReader, "application/json", result)
}

// DoMultipart dispatches a multipart request. The form's content type
// (including the boundary) comes from the multipart writer, never
// application/json, so the framing stays correct.
func (c *Client) DoMultipart(ctx context.Context, method, path string, form *MultipartForm, result any) error {
	body, contentType, err := form.encoded()
	if err != nil {
		return err
	}
	return c.dispatch(ctx, method, path, body, contentType, result)
}

// dispatch performs one HTTP round trip with the Gateway's header contract.
func (c *Client) dispatch(ctx context.Context, method, path string, body io.Reader, contentType string, result any) (err error) {
	url := strings.TrimRight(c.baseURL, "/") + c.apiPrefix + path
	requestID := uuid.New().String()

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "api.request",
			trace.WithAttributes(
				attribute.String("http.method", method),
				attribute.String("http.path", path),
				attribute.String("request.id", requestID),
			))
		defer func() {
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	start := time.Now()
	status := "ok"
	defer func() {
		if c.metrics != nil {
			c.metrics.RequestsTotal.WithLabelValues(method, status).Inc()
			c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		status = "error"
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Content-Type", contentType)
	// Token is resolved now, not at construction time, so a login or logout
	// between two calls is honored by the very next call.
	if token, ok := c.session.Current().Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api call", "method", method, "url", url, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		status = "unreachable"
		return &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		status = "error"
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		status = "error"
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, respBody),
			Body:       respBody,
		}
	}

	if result == nil {
		return nil
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "application/json") {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	if s, ok := result.(*string); ok {
		*s = string(respBody)
		return nil
	}
	return fmt.Errorf("unexpected content type %q for %s %s", resp.Header.Get("Content-Type"), method, path)
}

// MultipartForm accumulates fields and files for a multipart request.
type MultipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

// NewMultipartForm creates an empty multipart payload.
func NewMultipartForm() *MultipartForm {
	f := &MultipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// AddField appends a plain text form field.
func (f *MultipartForm) AddField(name, value string) *MultipartForm {
	if f.err != nil {
		return f
	}
	f.err = f.writer.WriteField(name, value)
	return f
}

// AddFile appends a file part read from r.
func (f *MultipartForm) AddFile(field, filename string, r io.Reader) *MultipartForm {
	if f.err != nil {
		return f
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = io.Copy(part, r)
	return f
}

// encoded finalizes the payload and returns the body reader and the
// transport-supplied content type carrying the boundary.
func (f *MultipartForm) encoded() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", fmt.Errorf("build multipart payload: %w", f.err)
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart payload: %w", err)
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}
