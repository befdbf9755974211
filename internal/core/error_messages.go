package core

// # Error Codes Reference
//
// User-facing messages carry a code that users can quote to support staff.
// Codes are grouped by category:
//
//	NEM001 - Missing header: the file has no 100 record
//	NEM002 - Missing footer: the file has no 900 record
//	NEM003 - Unsupported encoding: the configured input encoding is unknown
//	NEM004 - Line too long: a line exceeds the scanner limit
//
//	FILE001 - File too large for the upload limit
//	FILE002 - No file in the request
//	FILE003 - Request is not a multipart form
//
//	UPL001 - Too many concurrent conversions
//	UPL002 - Conversion cancelled
//	UPL003 - Conversion timed out
//	UPL004 - Run not found or expired
//
//	RATE001 - Too many requests
//
//	ERR000 - Anything else; check the logs for the technical error

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is a user-friendly rendering of an error.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// ErrFileTooLarge is returned when an upload exceeds the configured size.
var ErrFileTooLarge = errors.New("file too large")

// ErrRunNotFound is returned for unknown or expired run IDs.
var ErrRunNotFound = errors.New("run not found")

// errorTargets are matched with errors.Is before any pattern is tried.
var errorTargets = []struct {
	target error
	msg    UserMessage
}{
	{ErrMissingHeader, UserMessage{
		Message: "The file has no NEM12 header record",
		Action:  "Check that the file starts with a 100 record",
		Code:    "NEM001",
	}},
	{ErrMissingFooter, UserMessage{
		Message: "The file has no NEM12 footer record",
		Action:  "Check that the file was not truncated and ends with a 900 record",
		Code:    "NEM002",
	}},
	{bufio.ErrTooLong, UserMessage{
		Message: "A line in the file is too long",
		Action:  "Check that the file is a NEM12 CSV with one record per line",
		Code:    "NEM004",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}},
	{ErrTooManyConversions, UserMessage{
		Message: "Server is busy with other conversions",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
	{context.Canceled, UserMessage{
		Message: "Conversion was cancelled",
		Action:  "Upload the file again",
		Code:    "UPL002",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Conversion timed out",
		Action:  "Try a smaller file or use the command line tool",
		Code:    "UPL003",
	}},
	{ErrRunNotFound, UserMessage{
		Message: "Run not found",
		Action:  "Runs are kept for a limited time; convert the file again",
		Code:    "UPL004",
	}},
}

// errorPatterns match on the lowercased error text. Order matters: the
// first match wins.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"unsupported input encoding", UserMessage{
		Message: "The input encoding is not supported",
		Action:  "Use utf-8, windows-1252 or iso-8859-1",
		Code:    "NEM003",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}},
	{"no such file", UserMessage{
		Message: "No file was provided",
		Action:  "Select a NEM12 file to upload",
		Code:    "FILE002",
	}},
	{"isn't multipart", UserMessage{
		Message: "The request is not a file upload",
		Action:  "Submit the file using the upload form",
		Code:    "FILE003",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
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
