/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize both HTTP responses and the error reasons reported over the
WebSocket transport.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int); the value carries the wire reason, the
// user message, and the HTTP status code where one applies.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidRequest:    {Code: ErrInvalidRequest, Reason: "InvalidRequest", Message: "Invalid request parameters."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Reason: "RateLimited", Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Signaling Business Logic Errors
	ErrNameTaken:      {Code: ErrNameTaken, Reason: "NameTaken", Message: "This name is already taken in the room."},
	ErrNoRoom:         {Code: ErrNoRoom, Reason: "NoRoom", Message: "Join a room before signaling."},
	ErrTargetNotFound: {Code: ErrTargetNotFound, Reason: "TargetNotFound", Message: "Peer not found in this room."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Reason: "Unknown", Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
