package jira

import (
	"errors"
	"testing"
)

func TestDecodeIssue(t *testing.T) {
	dto, err := DecodeIssue(RawIssue(`{"key":"QA-1","fields":{"summary":"s","parent":{"key":"QA-0","fields":{"summary":"epic"}}}}`))
	if err != nil {
		t.Fatalf("DecodeIssue() error = %v", err)
	}
	if dto.Key != "QA-1" || dto.Fields.Parent == nil || dto.Fields.Parent.Fields.Summary != "epic" {
		t.Errorf("dto = %+v", dto)
	}

	if _, err := DecodeIssue(RawIssue(`{"key":"QA-2"}`)); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing fields error = %v, want ErrMissingFields", err)
	}
	if _, err := DecodeIssue(RawIssue(`{"key":"QA-3","fields":{"status":"Done"}}`)); err == nil {
		t.Error("expected error for wrongly typed status")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-03-15T10:20:30.000+0530", "2024-03-15", false},
		{"2024-03-15T10:20:30+0000", "2024-03-15", false},
		{"2024-03-15T10:20:30Z", "2024-03-15", false},
		{"2024-03-15T10:20:30.123456+02:00", "2024-03-15", false},
		{"15/03/2024", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTime(%q) error = %v", tt.in, err)
			continue
		}
		if err == nil && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseTime(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
