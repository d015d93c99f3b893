package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"file too large", ErrFileTooLarge, "FILE001"},
		{"no valid data", ErrNoValidData, "FILE002"},
		{"wrapped no valid data", fmt.Errorf("parse sales.csv: %w", ErrNoValidData), "FILE002"},
		{"not csv", ErrNotCSV, "FILE003"},
		{"no file", ErrNoFile, "FILE004"},
		{"row too large", fmt.Errorf("%w: exceeds 8 bytes", ErrRowTooLarge), "FILE005"},
		{"invalid json", ErrInvalidJSONData, "DATA001"},
		{"export format", ErrUnknownExportFormat, "EXP001"},
		{"busy", ErrTooManyUploads, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"timeout", context.DeadlineExceeded, "UPL005"},
		{"rate limited", errors.New("rate limit exceeded"), "RATE001"},
		{"case-insensitive", errors.New("FILE TOO LARGE"), "FILE001"},
		{"unknown", errors.New("disk on fire"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			if msg.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, msg.Code, tt.wantCode)
			}
			if msg.Message == "" || msg.Action == "" {
				t.Errorf("MapError(%v) = %+v, want message and action", tt.err, msg)
			}
		})
	}

	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestMapError_UniqueCodes(t *testing.T) {
	seen := make(map[string]string)
	for _, ep := range errorPatterns {
		if prev, ok := seen[ep.msg.Code]; ok {
			t.Errorf("code %s used by %q and %q", ep.msg.Code, prev, ep.pattern)
		}
		seen[ep.msg.Code] = ep.pattern
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNoValidData)
	want := "No valid data found in CSV file. (Code: FILE002). Ensure the file has a header row and at least one data row"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
	if got := FormatUserError(errors.New("boom")); !strings.Contains(got, "ERR000") {
		t.Errorf("FormatUserError(boom) = %q, want fallback code", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotCSV, true},
		{ErrTooManyUploads, true},
		{errors.New("something internal"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
