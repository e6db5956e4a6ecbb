package transform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/alnah/go-cleanscript/internal/apierr"
)

// classifyStatus maps an HTTP status from a chat-completions API to an
// apierr sentinel. Returns nil for statuses it does not recognize.
func classifyStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	var sentinel error
	switch status {
	case http.StatusTooManyRequests:
		// Distinguish between temporary rate limit and quota exceeded (billing issue).
		lower := strings.ToLower(message)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			sentinel = apierr.ErrQuotaExceeded
		} else {
			sentinel = apierr.ErrRateLimit
		}
	case http.StatusPaymentRequired:
		sentinel = apierr.ErrQuotaExceeded
	case http.StatusUnauthorized:
		sentinel = apierr.ErrAuthFailed
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		sentinel = apierr.ErrTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		sentinel = apierr.ErrTimeout // server-side, retryable
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
		sentinel = apierr.ErrBadRequest
	default:
		return nil
	}
	return fmt.Errorf("%s: %w", message, sentinel)
}

// classifyTransport maps transport-level failures (deadlines, network
// timeouts) to apierr.ErrTimeout. Other errors are returned unchanged.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%v: %w", err, apierr.ErrTimeout)
	}
	return err
}
