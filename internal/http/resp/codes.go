package resp

// Codes carried in the JSON envelope of error and status-only responses.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
	CodeUnavailable   = "UPSTREAM_UNAVAILABLE"

	CodeRemoved = "REMOVED"
	CodeQueued  = "QUEUED"
)
