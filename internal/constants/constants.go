package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyViewer  = "viewer"
	ContextKeyTask    = "task"
	SessionCookieName = "task_session"
)

// Request headers
const (
	HeaderUserID  = "x-user-id"
	HeaderIfMatch = "If-Match"
	HeaderETag    = "ETag"
)

// Task limits
const (
	MaxCollaborators = 5
	MaxDraftTasks    = 20
	MaxCommentLength = 2000
)

// Password and token defaults
const (
	MinPasswordLength = 8
	DefaultTokenTTL   = 24 * time.Hour
)

// Directory circuit breaker
const (
	DirectoryBreakerName        = "DirectoryLookupCB"
	DirectoryBreakerMaxRequests = 1
	DirectoryBreakerTimeout     = 5 * time.Second
	DirectoryBreakerMaxFailures = 3
)

// FilterAll is the sentinel value meaning "no constraint" for a filter field.
const FilterAll = "all"
