package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidRunParams     ErrorCode = 102
	ErrCodeInvalidTrade         ErrorCode = 103
	ErrCodeInvalidSeries        ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeInvalidDateRange     ErrorCode = 106

	// Data/Cache errors (200-299)
	ErrCodeNoDataFound      ErrorCode = 200
	ErrCodeDataFetchFailed  ErrorCode = 201
	ErrCodeCacheReadFailed  ErrorCode = 202
	ErrCodeCacheWriteFailed ErrorCode = 203
	ErrCodeDateOutOfRange   ErrorCode = 204

	// Strategy errors (300-399)
	ErrCodeUnknownStrategy ErrorCode = 300
	ErrCodeStrategyFailed  ErrorCode = 301

	// Portfolio errors (400-499)
	ErrCodeInsufficientFunds  ErrorCode = 400
	ErrCodeInsufficientShares ErrorCode = 401

	// Provider errors (500-599)
	ErrCodeInvalidProvider     ErrorCode = 500
	ErrCodeProviderUnavailable ErrorCode = 501
)
