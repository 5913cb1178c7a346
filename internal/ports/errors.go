package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Analysis Errors
	ErrInvalidInput = errors.New("invalid input data")

	// Chat Errors
	ErrUnsupportedCommand = errors.New("unsupported command")
	ErrCooldown           = errors.New("request rate for chat exceeded, try again shortly")

	// Upstream Specific Errors
	ErrExchangeUnavailable   = errors.New("exchange API is unavailable")
	ErrConnectionFailed      = errors.New("failed to connect to upstream service")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("upstream authentication failed (check API keys)")
	ErrSentimentUnavailable  = errors.New("sentiment index is unavailable")
	ErrWhaleFeedUnavailable  = errors.New("whale transfer feed is unavailable")
	ErrUnexpectedUpstreamRes = errors.New("unexpected upstream response")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrExchangeUnavailable)
}
