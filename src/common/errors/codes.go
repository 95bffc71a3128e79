package errors

import "net/http"

// Common error codes used across domains
const (
	CodeNotFound       Code = "not_found"
	CodeAlreadyExists  Code = "already_exists"
	CodeInvalidRequest Code = "invalid_request"
	CodeConflict       Code = "conflict"
	CodeInternal       Code = "internal_error"
	CodeUnavailable    Code = "unavailable"
	CodeTimeout        Code = "timeout"
)

// ============================================================================
// Catalog Errors
// ============================================================================

var (
	// ErrCatalogFetch is returned by a version source when the remote release
	// list cannot be retrieved or decoded
	ErrCatalogFetch = New(DomainCatalog, "fetch_failed", http.StatusBadGateway,
		"Failed to fetch kernel releases")

	// ErrCatalogEmpty is returned by a version source whose payload lists no releases
	ErrCatalogEmpty = New(DomainCatalog, "empty", http.StatusBadGateway,
		"Kernel release list is empty")

	// ErrVersionNotFound is returned when a kernel version is not in the catalog
	ErrVersionNotFound = New(DomainCatalog, CodeNotFound, http.StatusNotFound,
		"Kernel version not found")
)

// ============================================================================
// Toolchain Errors
// ============================================================================

var (
	// ErrToolchainNotFound is returned when neither clang nor gcc can be probed
	ErrToolchainNotFound = New(DomainToolchain, CodeNotFound, http.StatusServiceUnavailable,
		"No usable compiler toolchain found")

	// ErrToolchainProbe is returned when a single probe fails or times out
	ErrToolchainProbe = New(DomainToolchain, "probe_failed", http.StatusServiceUnavailable,
		"Toolchain probe failed")

	// ErrUnknownToolchain is returned for a toolchain kind other than clang or gcc
	ErrUnknownToolchain = New(DomainToolchain, CodeInvalidRequest, http.StatusBadRequest,
		"Unknown toolchain kind")
)

// ============================================================================
// Configuration Errors
// ============================================================================

var (
	// ErrUnknownBloatCategory is returned when a bloat-removal category name is not in the table
	ErrUnknownBloatCategory = New(DomainConfig, "unknown_category", http.StatusBadRequest,
		"Unknown bloat-removal category")

	// ErrUnsupportedArch is returned when a baseline is requested for an unsupported architecture
	ErrUnsupportedArch = New(DomainConfig, "unsupported_arch", http.StatusBadRequest,
		"Unsupported target architecture")

	// ErrConfigParse is returned when a .config stream cannot be read
	ErrConfigParse = New(DomainConfig, "parse_failed", http.StatusBadRequest,
		"Failed to parse kernel configuration")
)

// ============================================================================
// Plan Errors
// ============================================================================

var (
	// ErrPlanInvalid is returned when a plan has one or more validation violations
	ErrPlanInvalid = New(DomainPlan, "invalid", http.StatusUnprocessableEntity,
		"Build plan failed validation")

	// ErrInvalidParallelism is returned when make parallelism is below one
	ErrInvalidParallelism = New(DomainPlan, "invalid_parallelism", http.StatusBadRequest,
		"Parallelism must be at least 1")

	// ErrInvalidLTOMode is returned for an LTO mode other than thin, full or none
	ErrInvalidLTOMode = New(DomainPlan, "invalid_lto", http.StatusBadRequest,
		"Unknown LTO mode")

	// ErrPlanNotFound is returned when a stored plan cannot be found
	ErrPlanNotFound = New(DomainPlan, CodeNotFound, http.StatusNotFound,
		"Build plan not found")
)

// ============================================================================
// Storage Errors
// ============================================================================

var (
	// ErrStorageNotFound is returned when a storage object cannot be found
	ErrStorageNotFound = New(DomainStorage, CodeNotFound, http.StatusNotFound,
		"Object not found in storage")

	// ErrStorageUploadFailed is returned when a storage upload fails
	ErrStorageUploadFailed = New(DomainStorage, "upload_failed", http.StatusInternalServerError,
		"Failed to upload object to storage")

	// ErrStorageUnavailable is returned when the storage backend is unavailable
	ErrStorageUnavailable = New(DomainStorage, CodeUnavailable, http.StatusServiceUnavailable,
		"Storage backend unavailable")
)

// ============================================================================
// Database Errors
// ============================================================================

var (
	// ErrDatabaseConnection is returned when database connection fails
	ErrDatabaseConnection = New(DomainDatabase, "connection_failed", http.StatusServiceUnavailable,
		"Database connection failed")

	// ErrDatabaseQuery is returned when a database query fails
	ErrDatabaseQuery = New(DomainDatabase, "query_failed", http.StatusInternalServerError,
		"Database query failed")
)

// ============================================================================
// Validation Errors
// ============================================================================

var (
	// ErrValidationFailed is returned when request validation fails
	ErrValidationFailed = New(DomainValidation, "validation_failed", http.StatusBadRequest,
		"Validation failed")

	// ErrInvalidFieldValue is returned when a field value is invalid
	ErrInvalidFieldValue = New(DomainValidation, "invalid_value", http.StatusBadRequest,
		"Invalid field value")

	// ErrInvalidJSON is returned when JSON parsing fails
	ErrInvalidJSON = New(DomainValidation, "invalid_json", http.StatusBadRequest,
		"Invalid JSON")
)

// ============================================================================
// Internal Errors
// ============================================================================

var (
	// ErrInternal is a generic internal server error
	ErrInternal = New(DomainInternal, CodeInternal, http.StatusInternalServerError,
		"Internal server error")

	// ErrRateLimited is returned when a client exceeds its request quota
	ErrRateLimited = New(DomainInternal, "rate_limited", http.StatusTooManyRequests,
		"Too many requests, retry later")
)
