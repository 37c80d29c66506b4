/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific request or routing failures both internally
within the server and in the structured results reported to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidRequest indicates a malformed request or a missing required field.
	ErrInvalidRequest = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Room and Signaling Business Logic Errors
const (
	// ErrNameTaken indicates that the requested display name is already held
	// by a member of the target room.
	ErrNameTaken = 2101

	// ErrNoRoom indicates that the operation requires the connection to have
	// joined a room first.
	ErrNoRoom = 2102

	// ErrTargetNotFound indicates that the addressed peer is not a member of
	// the sender's room, or has already disconnected.
	ErrTargetNotFound = 2103
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
