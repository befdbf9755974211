package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing header",
			err:         ErrMissingHeader,
			wantCode:    "NEM001",
			wantMessage: "The file has no NEM12 header record",
		},
		{
			name:        "joined structural errors match the first",
			err:         errors.Join(ErrMissingHeader, ErrMissingFooter),
			wantCode:    "NEM001",
			wantMessage: "The file has no NEM12 header record",
		},
		{
			name:        "wrapped missing footer",
			err:         fmt.Errorf("validate: %w", ErrMissingFooter),
			wantCode:    "NEM002",
			wantMessage: "The file has no NEM12 footer record",
		},
		{
			name:        "unsupported encoding",
			err:         errors.New(`unsupported input encoding "ebcdic"`),
			wantCode:    "NEM003",
			wantMessage: "The input encoding is not supported",
		},
		{
			name:        "line too long",
			err:         fmt.Errorf("read input at line 4: %w", bufio.ErrTooLong),
			wantCode:    "NEM004",
			wantMessage: "A line in the file is too long",
		},
		{
			name:        "max bytes reader",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "missing form file",
			err:         errors.New("http: no such file"),
			wantCode:    "FILE002",
			wantMessage: "No file was provided",
		},
		{
			name:        "limiter busy",
			err:         ErrTooManyConversions,
			wantCode:    "UPL001",
			wantMessage: "Server is busy with other conversions",
		},
		{
			name:        "cancelled",
			err:         fmt.Errorf("conversion cancelled at line 100: %w", context.Canceled),
			wantCode:    "UPL002",
			wantMessage: "Conversion was cancelled",
		},
		{
			name:        "timeout",
			err:         context.DeadlineExceeded,
			wantCode:    "UPL003",
			wantMessage: "Conversion timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT hit"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrMissingFooter)

	expected := "The file has no NEM12 footer record (Code: NEM002). Check that the file was not truncated and ends with a 900 record"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrRunNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
