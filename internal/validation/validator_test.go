// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package validation

import (
	"strings"
	"testing"
	"time"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type queryStruct struct {
	Start  string `query:"start" validate:"omitempty,flextime"`
	Types  string `query:"type" validate:"omitempty,intlist"`
	Terids string `query:"terid" validate:"omitempty,idlist"`
	Limit  int    `query:"limit" validate:"min=0,max=10000"`
	Hours  int    `query:"hours" validate:"min=0,max=8760"`
	Status string `query:"status" validate:"omitempty,oneof=moving stopped offline"`
	Name   string `validate:"omitempty,max=5"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input queryStruct
	}{
		{"empty", queryStruct{}},
		{"rfc3339", queryStruct{Start: "2026-03-01T12:00:00Z"}},
		{"rfc3339 offset", queryStruct{Start: "2026-03-01T12:00:00+02:00"}},
		{"space datetime", queryStruct{Start: "2026-03-01 12:00:00"}},
		{"date only", queryStruct{Start: "2026-03-01"}},
		{"types", queryStruct{Types: "1, 12,203"}},
		{"terids", queryStruct{Terids: "T1,T2"}},
		{"limits", queryStruct{Limit: 10000, Hours: 24}},
		{"status", queryStruct{Status: "offline"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() error = %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     queryStruct
		wantField string
		wantTag   string
		contains  string
	}{
		{"bad date", queryStruct{Start: "01/03/2026"}, "start", "flextime", "start must be a date"},
		{"bad types", queryStruct{Types: "1,x"}, "type", "intlist", "integers"},
		{"empty terid item", queryStruct{Terids: "T1,,T2"}, "terid", "idlist", "identifiers"},
		{"limit too big", queryStruct{Limit: 10001}, "limit", "max", "limit must be at most 10000"},
		{"negative hours", queryStruct{Hours: -1}, "hours", "min", "hours must be at least 0"},
		{"bad status", queryStruct{Status: "parked"}, "status", "oneof", "status must be one of: moving stopped offline"},
		{"long string uses field name", queryStruct{Name: "toolong"}, "Name", "max", "Name must be at most 5 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() error = nil, want error")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("errors = %d, want 1", len(err.Errors()))
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField || fe.Tag() != tt.wantTag {
				t.Errorf("field/tag = %s/%s, want %s/%s", fe.Field(), fe.Tag(), tt.wantField, tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&queryStruct{Limit: -5})
	if err == nil {
		t.Fatal("expected validation error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "limit must be at least 0" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "limit" {
		t.Errorf("Details[field] = %v, want limit", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&queryStruct{Limit: -5, Types: "a"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	apiErr := err.ToAPIError()
	if !strings.Contains(apiErr.Message, "type:") || !strings.Contains(apiErr.Message, "limit:") {
		t.Errorf("Message = %q, want both fields listed", apiErr.Message)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Errorf("Details[fields] = %v, want 2 entries", apiErr.Details["fields"])
	}
}

func TestNewRequestValidationError(t *testing.T) {
	err := NewRequestValidationError("start", "before", "start must be before end")
	apiErr := err.ToAPIError()
	if apiErr.Message != "start must be before end" || apiErr.Details["field"] != "start" {
		t.Errorf("ToAPIError() = %+v", apiErr)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-01T12:30:00Z", want, false},
		{"2026-03-01T14:30:00+02:00", want, false},
		{"2026-03-01 12:30:00", want, false},
		{" 2026-03-01 ", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"2026/03/01", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if err == nil && got.Location() != time.UTC {
				t.Errorf("ParseTime(%q) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestParseTimeIn(t *testing.T) {
	eat := time.FixedZone("EAT", 3*60*60)

	got, err := ParseTimeIn("2026-03-01 15:30:00", eat)
	if err != nil {
		t.Fatalf("ParseTimeIn() error = %v", err)
	}
	if want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("ParseTimeIn() = %v, want %v in UTC", got, want)
	}

	got, err = ParseTimeIn("2026-03-01T15:30:00+03:00", time.UTC)
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)) {
		t.Errorf("ParseTimeIn(offset) = %v, %v", got, err)
	}

	got, err = ParseTimeIn("2026-03-01", nil)
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseTimeIn(nil loc) = %v, %v, want UTC midnight", got, err)
	}
}

func TestParseIntList(t *testing.T) {
	got, err := ParseIntList("1, 12 ,203")
	if err != nil || len(got) != 3 || got[0] != 1 || got[1] != 12 || got[2] != 203 {
		t.Errorf("ParseIntList() = %v, %v", got, err)
	}
	if got, err := ParseIntList("  "); err != nil || got != nil {
		t.Errorf("ParseIntList(blank) = %v, %v; want nil, nil", got, err)
	}
	if _, err := ParseIntList("1,,2"); err == nil {
		t.Error("ParseIntList(1,,2) error = nil, want error")
	}
}

func TestParseIDList(t *testing.T) {
	if got := ParseIDList(" T1 ,T2"); len(got) != 2 || got[0] != "T1" || got[1] != "T2" {
		t.Errorf("ParseIDList() = %v", got)
	}
	if got := ParseIDList("T1,"); got != nil {
		t.Errorf("ParseIDList(T1,) = %v, want nil", got)
	}
}
