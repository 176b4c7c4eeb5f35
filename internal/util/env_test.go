package util

import (
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"numeric one", "1", false, true},
		{"yes with spaces", "  yes  ", false, true},
		{"ON uppercase", "ON", false, true},
		{"false", "false", true, false},
		{"off", "off", true, false},
		{"garbage uses default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "MEDTECH_TEST_BOOL"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			}
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"unset uses default", "", 30 * time.Minute, 30 * time.Minute},
		{"minutes", "15m", time.Hour, 15 * time.Minute},
		{"compound", "1h30m", time.Minute, 90 * time.Minute},
		{"garbage uses default", "soon", time.Hour, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "MEDTECH_TEST_DURATION"
			if tt.value != "" {
				t.Setenv(key, tt.value)
			}
			if got := ParseDurationEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseDurationEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}
