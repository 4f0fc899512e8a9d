package core

// error_messages.go maps engine errors to user notifications with codes for
// support reference.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Unsupported file type (only .csv and .tsv)
//	FILE003 - Malformed file
//	FILE004 - No file provided
//	FILE005 - Empty file (no data rows)
//	FILE006 - Invalid header (blank or duplicate column names)
//
// # View Errors (VIEW001-VIEW099)
//
//	VIEW001 - No dataset loaded
//	VIEW002 - Invalid page size
//	VIEW003 - Unknown column
//
// # Edit Errors (EDIT001-EDIT099)
//
//	EDIT001 - Row out of range
//	EDIT002 - No edit in progress
//	EDIT003 - Unknown transform
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unsupported export format
//	EXP002 - Export failed
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found
//	SES002 - Load already in progress
//
// # Load Capacity (UPL001-UPL099)
//
//	UPL001 - Too many concurrent loads
//	UPL002 - Request cancelled
//	UPL003 - Request timed out
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid request body
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains against the
// error chain's text. The first match wins, so specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: string(ReasonTooLarge),
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: string(ReasonExtension),
		msg: UserMessage{
			Message: "Only .csv and .tsv files can be loaded",
			Action:  "Save the file as CSV and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: string(ReasonMalformed),
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Check quoting and delimiters in the file",
			Code:    "FILE003",
		},
	},
	{
		pattern: string(ReasonNoFile),
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to load",
			Code:    "FILE004",
		},
	},
	{
		pattern: string(ReasonEmpty),
		msg: UserMessage{
			Message: "The file contains no data rows",
			Action:  "Please load a file with a header and at least one row",
			Code:    "FILE005",
		},
	},
	{
		pattern: string(ReasonHeader),
		msg: UserMessage{
			Message: "The header row has blank or duplicate column names",
			Action:  "Give every column a unique name",
			Code:    "FILE006",
		},
	},

	// View errors
	{
		pattern: "no dataset loaded",
		msg: UserMessage{
			Message: "No data is loaded",
			Action:  "Load a file or the example data first",
			Code:    "VIEW001",
		},
	},
	{
		pattern: "invalid page size",
		msg: UserMessage{
			Message: "Page size is not allowed",
			Action:  "Choose a positive page size within the configured maximum",
			Code:    "VIEW002",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Column not found",
			Action:  "Verify the column name matches the header exactly",
			Code:    "VIEW003",
		},
	},

	// Edit errors
	{
		pattern: "row out of range",
		msg: UserMessage{
			Message: "That row is not on the current page",
			Action:  "Refresh the view and try the edit again",
			Code:    "EDIT001",
		},
	},
	{
		pattern: "no edit in progress",
		msg: UserMessage{
			Message: "No cell is being edited",
			Action:  "Select a cell to edit first",
			Code:    "EDIT002",
		},
	},
	{
		pattern: "unknown transform",
		msg: UserMessage{
			Message: "Unknown transform",
			Action:  "Use upper, lower, title or clear",
			Code:    "EDIT003",
		},
	},

	// Export errors
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "Export format is not supported",
			Action:  "Export as csv, json or xlsx",
			Code:    "EXP001",
		},
	},
	{
		pattern: "export failed",
		msg: UserMessage{
			Message: "The export could not be created",
			Action:  "Please try again",
			Code:    "EXP002",
		},
	},

	// Session errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Session not found",
			Action:  "The session may have expired. Please start a new one",
			Code:    "SES001",
		},
	},
	{
		pattern: "load already in progress",
		msg: UserMessage{
			Message: "A file is already loading",
			Action:  "Wait for the current load to finish",
			Code:    "SES002",
		},
	},

	// Load capacity
	{
		pattern: "too many concurrent loads",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
		},
	},

	// Request errors
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Send a JSON body with the expected fields",
			Code:    "REQ001",
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
}

// defaultMessage is returned when no pattern matches (ERR000). Support staff
// should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the generic ERR000 message is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
