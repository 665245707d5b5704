package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDate          ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidInstrument    ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Fetch errors (200-299)
	ErrCodeFetchNotFound         ErrorCode = 200
	ErrCodeFetchRateLimited      ErrorCode = 201
	ErrCodeFetchTransient        ErrorCode = 202
	ErrCodeFetchMalformedPayload ErrorCode = 203
	ErrCodeFetchExhausted        ErrorCode = 204
	ErrCodeNoCredentialAvailable ErrorCode = 205
	ErrCodeInvalidProvider       ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeInsufficientHistory    ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound      ErrorCode = 400
	ErrCodeStrategyAlreadyExists ErrorCode = 401
	ErrCodeStrategyRuntimeError  ErrorCode = 402

	// Store errors (500-599)
	ErrCodeStoreUnavailable         ErrorCode = 500
	ErrCodeStoreConstraintViolation ErrorCode = 501
	ErrCodeStoreQueryFailed         ErrorCode = 502
	ErrCodeStoreSchemaMismatch      ErrorCode = 503

	// Orchestration errors (600-699)
	ErrCodePartialDateFailure ErrorCode = 600
	ErrCodeStoreCommitFailure ErrorCode = 601
	ErrCodeRunCancelled       ErrorCode = 602
)
