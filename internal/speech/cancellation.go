// Package speech wraps cloud recognition and synthesis engines behind
// adapters that never surface raw transport errors.
package speech

import (
	"fmt"
	"strings"
)

// CancellationReason explains why an engine call did not produce a result.
type CancellationReason string

const (
	ReasonError           CancellationReason = "Error"
	ReasonEndOfStream     CancellationReason = "EndOfStream"
	ReasonCancelledByUser CancellationReason = "CancelledByUser"
)

// ErrorCode values reported with ReasonError.
const (
	CodeNoError               = "NoError"
	CodeAuthenticationFailure = "AuthenticationFailure"
	CodeBadRequest            = "BadRequest"
	CodeTooManyRequests       = "TooManyRequests"
	CodeConnectionFailure     = "ConnectionFailure"
	CodeServiceTimeout        = "ServiceTimeout"
	CodeServiceError          = "ServiceError"
	CodeRuntimeError          = "RuntimeError"
)

// Cancellation carries the cancel reason and, for errors, a code and details.
type Cancellation struct {
	Reason       CancellationReason
	ErrorCode    string
	ErrorDetails string
}

// Text renders the transcript line for a cancellation. Code and details are
// included only when the reason is an error.
func (c Cancellation) Text() string {
	text := fmt.Sprintf("CANCELED: Reason = %s", c.Reason)
	if c.Reason == ReasonError {
		text += fmt.Sprintf(", ErrorCode = %s, ErrorDetails = %s", c.ErrorCode, c.ErrorDetails)
	}
	return text
}

// errorCancellation builds a ReasonError cancellation. Code and details are
// never empty so the transcript line always says what failed.
func errorCancellation(code, details string) Cancellation {
	if strings.TrimSpace(code) == "" {
		code = CodeRuntimeError
	}
	if strings.TrimSpace(details) == "" {
		details = "no details reported by the service"
	}
	return Cancellation{Reason: ReasonError, ErrorCode: code, ErrorDetails: details}
}

// firstNonBlank returns the first value with visible text.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// codeForHTTPStatus maps a REST status to a cancellation error code.
func codeForHTTPStatus(status int) string {
	switch {
	case status == 401 || status == 403:
		return CodeAuthenticationFailure
	case status == 400:
		return CodeBadRequest
	case status == 429:
		return CodeTooManyRequests
	case status == 408 || status == 504:
		return CodeServiceTimeout
	case status >= 500:
		return CodeServiceError
	default:
		return CodeRuntimeError
	}
}
