package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. Codes are grouped by
// category:
//
//	IN001  - Malformed input: The data is not valid JSON
//	         Patterns: "malformed input"
//	IN002  - Body too large: The submitted data exceeds the size limit
//	         Patterns: "request body too large"
//
//	CFG001 - Invalid options: The display configuration is invalid
//	         Patterns: "invalid options"
//	CFG002 - Formatter unknown: A configured formatter does not exist
//	         Patterns: "unknown formatter"
//
//	LKP001 - Lookup failed: A related value could not be looked up
//	         Patterns: "lookup resolution failed"
//
//	FMT001 - Formatter failed: A value could not be formatted
//	         Patterns: "formatter failed"
//
//	PNL001 - Panel not found: The requested panel is not defined
//	         Patterns: "panel not found"
//	PNL002 - Document not found: No stored document has this id
//	         Patterns: "document not found"
//	PNL003 - No source: The panel is not bound to stored documents
//	         Patterns: "panel has no source"
//
//	DB004  - Connection refused: Unable to connect to database
//	DB005  - Connection reset: Database connection was interrupted
//	DB006  - Timeout: Operation timed out
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timeout ("context deadline exceeded")
//
//	RATE001 - Rate limited ("rate limit")
//	RATE002 - Too many concurrent renders ("too many concurrent")
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Input
	{
		pattern: "malformed input",
		msg: UserMessage{
			Message: "The data is not valid JSON",
			Action:  "Check the submitted data for syntax errors",
			Code:    "IN001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The submitted data exceeds the size limit",
			Action:  "Submit a smaller document",
			Code:    "IN002",
		},
	},

	// Configuration
	{
		pattern: "unknown formatter",
		msg: UserMessage{
			Message: "A configured formatter does not exist",
			Action:  "Check the formatter names in the panel definition",
			Code:    "CFG002",
		},
	},
	{
		pattern: "invalid options",
		msg: UserMessage{
			Message: "The display configuration is invalid",
			Action:  "Review the panel definition",
			Code:    "CFG001",
		},
	},

	// Resolution
	{
		pattern: "lookup resolution failed",
		msg: UserMessage{
			Message: "A related value could not be looked up",
			Action:  "Check that the lookup source is reachable and configured correctly",
			Code:    "LKP001",
		},
	},
	{
		pattern: "formatter failed",
		msg: UserMessage{
			Message: "A value could not be formatted",
			Action:  "Check that the value matches what the formatter expects",
			Code:    "FMT001",
		},
	},

	// Panels
	{
		pattern: "panel not found",
		msg: UserMessage{
			Message: "The requested panel is not defined",
			Action:  "Verify the panel name is correct",
			Code:    "PNL001",
		},
	},
	{
		pattern: "document not found",
		msg: UserMessage{
			Message: "No stored document has this id",
			Action:  "Verify the record id",
			Code:    "PNL002",
		},
	},
	{
		pattern: "panel has no source",
		msg: UserMessage{
			Message: "This panel is not bound to stored documents",
			Action:  "Submit the data directly instead",
			Code:    "PNL003",
		},
	},

	// Database
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// Request lifecycle. "context deadline exceeded" must precede "timeout".
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again or reduce the number of lookups",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "The server is busy rendering other documents",
			Action:  "Please try again in a few seconds",
			Code:    "RATE002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
// Returns "" for a nil error.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
