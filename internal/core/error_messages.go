package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - No data: There are no records to export
//	         Action: Adjust your filters or select some rows first
//	         Patterns: "no data to export"
//
//	EXP002 - Unsupported format: The requested format is not available
//	         Action: Choose csv, excel, json or pdf
//	         Patterns: "unsupported export format"
//
//	EXP003 - System busy: Too many exports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many exports"
//
//	EXP004 - Invalid request: The export request could not be read
//	         Action: Check the request body is valid JSON
//	         Patterns: "invalid request body"
//
//	EXP005 - Unknown preset: No column preset with that name
//	         Action: List the available presets and pick one of them
//	         Patterns: "unknown preset"
//
//	EXP006 - Invalid filter: A filter could not be understood
//	         Action: Use op:value with contains, eq, in or between
//	         Patterns: "invalid filter"
//
//	EXP007 - Invalid job: A batch manifest entry could not be read
//	         Action: Fix the job's fields in the manifest
//	         Patterns: "invalid manifest job"
//
//	EXP008 - Shutting down: The server no longer accepts exports
//	         Action: Retry once the server is back
//	         Patterns: "shutting down"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to database
//	DB002 - Connection reset: Database connection was interrupted
//	DB003 - Timeout: Operation timed out
//	DB004 - Missing table: The source table does not exist
//	DB005 - No database: No database source is configured
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Remote source: The remote data endpoint failed
//	SRC002 - File source: The input file could not be read
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error when users report ERR000.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Export Errors (EXP001-EXP008)
	// =========================================================================
	{
		pattern: "no data to export",
		msg: UserMessage{
			Message: "There are no records to export",
			Action:  "Adjust your filters or select some rows first",
			Code:    "EXP001",
		},
	},
	{
		pattern: "unsupported export format",
		msg: UserMessage{
			Message: "The requested export format is not available",
			Action:  "Choose csv, excel, json or pdf",
			Code:    "EXP002",
		},
	},
	{
		pattern: "too many exports",
		msg: UserMessage{
			Message: "System is busy processing other exports",
			Action:  "Please wait a moment and try again",
			Code:    "EXP003",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The export request could not be read",
			Action:  "Check the request body is valid JSON",
			Code:    "EXP004",
		},
	},
	{
		pattern: "unknown preset",
		msg: UserMessage{
			Message: "No column preset with that name",
			Action:  "List the available presets and pick one of them",
			Code:    "EXP005",
		},
	},
	{
		pattern: "invalid filter",
		msg: UserMessage{
			Message: "A filter could not be understood",
			Action:  "Use op:value with contains, eq, in or between",
			Code:    "EXP006",
		},
	},
	{
		pattern: "invalid manifest job",
		msg: UserMessage{
			Message: "A batch job could not be read from the manifest",
			Action:  "Fix the job's fields in the manifest",
			Code:    "EXP007",
		},
	},
	{
		pattern: "shutting down",
		msg: UserMessage{
			Message: "The server is restarting and not taking exports",
			Action:  "Retry in a few moments",
			Code:    "EXP008",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// Checked before database timeouts since both mention deadlines.
	// =========================================================================
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
			Action:  "Try exporting fewer records or check your connection",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB005)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try exporting fewer records or try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The source table does not exist",
			Action:  "Check the preset's table name against the database",
			Code:    "DB004",
		},
	},
	{
		pattern: "source not configured",
		msg: UserMessage{
			Message: "No database source is configured",
			Action:  "Set DATABASE_URL and restart the server",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Source Errors (SRC001-SRC002)
	// =========================================================================
	{
		pattern: "remote source",
		msg: UserMessage{
			Message: "The remote data endpoint failed",
			Action:  "Check the endpoint URL and try again",
			Code:    "SRC001",
		},
	},
	{
		pattern: "read file",
		msg: UserMessage{
			Message: "The input file could not be read",
			Action:  "Check the file path and that it is valid JSON or CSV",
			Code:    "SRC002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
