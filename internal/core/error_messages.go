package core

// error_messages.go maps technical errors to user-facing messages with
// support codes.
//
//	FILE001 - File too large       ("file too large")
//	FILE002 - No valid CSV data    ("no valid csv data")
//	FILE003 - Not a CSV file       ("not a csv file")
//	FILE004 - No file              ("no file provided")
//	FILE005 - Row too large        ("csv row too large")
//	DATA001 - Invalid JSON payload ("invalid data format")
//	EXP001  - Export format        ("unknown export format")
//	UPL002  - System busy          ("too many concurrent uploads")
//	UPL004  - Request cancelled    ("context canceled")
//	UPL005  - Request timeout      ("context deadline exceeded")
//	RATE001 - Rate limited         ("rate limit")
//	ERR000  - Fallback
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// Upload-path errors. Messages are matched by MapError.
var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrNotCSV          = errors.New("not a csv file")
	ErrNoFile          = errors.New("no file provided")
	ErrInvalidJSONData = errors.New("invalid data format: expected an array")

	ErrUnknownExportFormat = errors.New("unknown export format")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no valid csv data",
		msg: UserMessage{
			Message: "No valid data found in CSV file.",
			Action:  "Ensure the file has a header row and at least one data row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "not a csv file",
		msg: UserMessage{
			Message: "Only CSV files are allowed",
			Action:  "Upload a file with a .csv extension",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file uploaded",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "csv row too large",
		msg: UserMessage{
			Message: "A row in the file is too large to process",
			Action:  "Check the file for an unterminated quoted field",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid data format",
		msg: UserMessage{
			Message: "Invalid data format. Expected an array.",
			Action:  "Send a JSON body of the form {\"data\": [...]}",
			Code:    "DATA001",
		},
	},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Unsupported export format",
			Action:  "Use format=csv or format=xlsx",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "Too many uploads in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
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
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
