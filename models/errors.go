package models

// Application error types carried on non-retryable workflow and
// activity errors so callers can distinguish precondition failures
// from external faults.
const (
	ErrTypeMissingPayload        = "MissingPayloadError"
	ErrTypeOrderNotClaimable     = "OrderNotClaimableError"
	ErrTypeExternalOrderCreation = "ExternalOrderCreationError"
	ErrTypeEmptyRejectionReason  = "EmptyRejectionReasonError"
	ErrTypeUnknownAction         = "UnknownActionError"
)
