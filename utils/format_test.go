package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1,000", FormatCount(1_000))
	assert.Equal(t, "1,000,000", FormatCount(1_000_000))
}

func TestR2ConfigEnabled(t *testing.T) {
	assert.False(t, R2Config{}.Enabled())
	assert.False(t, R2Config{AccountID: "a", AccessKeyID: "k", AccessKeySecret: "s"}.Enabled())
	assert.True(t, R2Config{AccountID: "a", AccessKeyID: "k", AccessKeySecret: "s", Bucket: "b"}.Enabled())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud")
	assert.Error(t, err)

	logger, err := NewLogger("debug")
	assert.NoError(t, err)
	assert.NotNil(t, logger)
}
