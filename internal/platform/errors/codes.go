package errors

// Code is a machine-readable error classification.
type Code string

const (
	// CodeInvalidArgument marks validation failures on caller input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeNotFound marks lookups for records that do not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeConflict marks state transitions the current record forbids.
	CodeConflict Code = "CONFLICT"
	// CodeProviderFailure marks LLM provider request or parse failures.
	CodeProviderFailure Code = "PROVIDER_FAILURE"
	// CodeStorageFailure marks persistence-layer failures.
	CodeStorageFailure Code = "STORAGE_FAILURE"
	// CodeInternal marks unexpected internal failures.
	CodeInternal Code = "INTERNAL"
)
