package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default", value: "", defaultValue: true, want: true},
		{name: "true", value: "true", defaultValue: false, want: true},
		{name: "yes uppercase", value: "YES", defaultValue: false, want: true},
		{name: "one", value: "1", defaultValue: false, want: true},
		{name: "off", value: "off", defaultValue: true, want: false},
		{name: "zero", value: "0", defaultValue: true, want: false},
		{name: "whitespace trimmed", value: "  no  ", defaultValue: true, want: false},
		{name: "garbage uses default", value: "maybe", defaultValue: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_PARSE_BOOL_ENV"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			}
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestParseInt64Env(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue int64
		want         int64
	}{
		{name: "unset uses default", value: "", defaultValue: 42, want: 42},
		{name: "positive", value: "12345", defaultValue: 0, want: 12345},
		{name: "negative chat id", value: "-1001234567890", defaultValue: 0, want: -1001234567890},
		{name: "whitespace trimmed", value: " 7 ", defaultValue: 0, want: 7},
		{name: "garbage uses default", value: "abc", defaultValue: 9, want: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_PARSE_INT64_ENV"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			}
			if got := ParseInt64Env(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseInt64Env(%q, %d) = %d, want %d", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	key := "TEST_GET_ENV_WITH_DEFAULT"
	if got := GetEnvWithDefault(key, "fallback"); got != "fallback" {
		t.Errorf("expected fallback for unset key, got %q", got)
	}
	t.Setenv(key, "explicit")
	if got := GetEnvWithDefault(key, "fallback"); got != "explicit" {
		t.Errorf("expected explicit value, got %q", got)
	}
}
