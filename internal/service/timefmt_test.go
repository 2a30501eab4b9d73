package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeRemaining(t *testing.T) {
	tests := []struct {
		name string
		left time.Duration
		want string
	}{
		{"days", 3*24*time.Hour + 4*time.Hour + 5*time.Minute, "3d 4h 5m remaining"},
		{"hours", 2*time.Hour + 30*time.Minute, "2h 30m remaining"},
		{"minutes", 59 * time.Minute, "59m remaining"},
		{"seconds round down", 30 * time.Second, "0m remaining"},
		{"deadline reached", 0, ExpiredLabel},
		{"past deadline", -time.Hour, ExpiredLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimeRemaining(testNow.Add(tt.left), testNow))
		})
	}
}

func TestFormatSuspensionRemaining(t *testing.T) {
	assert.Equal(t, "6d 23h", formatSuspensionRemaining(testNow.Add(7*24*time.Hour-time.Minute), testNow))
	assert.Equal(t, "5h", formatSuspensionRemaining(testNow.Add(5*time.Hour+10*time.Minute), testNow))
	assert.Equal(t, "0h", formatSuspensionRemaining(testNow, testNow))
}
