package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// DownstreamErrorResponse is the {"error":{"code","message"}} body written by
// httputil.WriteError and by the catalog, discount and shipping services.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError. Unstructured bodies keep the raw text.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", serviceName, resp.StatusCode, err)
	}

	code, message := "", string(body)
	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		code, message = downstream.Error.Code, downstream.Error.Message
	}
	return mapDownstreamError(resp.StatusCode, code, message, serviceName)
}

func mapDownstreamError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusGone:
		return apperrors.Gone(qualified)
	case status == http.StatusTooManyRequests, status >= 500:
		e := apperrors.ServiceUnavailable(qualified)
		if code != "" {
			e.Code = code
		}
		return e
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}

// TransportError converts a failure to obtain any response (deadline,
// open breaker, connection refused, 5xx after retries) into a retryable
// ServiceUnavailable error that keeps the cause. Cancellation by the caller
// is returned unchanged.
func TransportError(err error, serviceName string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var reason string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timed out"
	case errors.Is(err, ErrCircuitOpen):
		reason = "circuit open"
	default:
		reason = "unreachable"
	}
	e := apperrors.ServiceUnavailable(fmt.Sprintf("%s %s", serviceName, reason))
	return fmt.Errorf("%w: %w", e, err)
}

// GetJSON issues a GET through the breaker and decodes a 2xx body into dst.
// Non-2xx answers go through ParseResponseError and transport failures
// through TransportError.
func GetJSON(ctx context.Context, c *CircuitBreakerClient, url string, dst any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return TransportError(err, c.Name())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseResponseError(resp, c.Name())
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", c.Name(), err)
	}
	return nil
}
