package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("hello %d", 1)
	assert.Equal(t, "hello %d", got)

	got = ""
	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("muted") })
	assert.Empty(t, got)
}

func TestLogfDefault(t *testing.T) {
	assert.NotNil(t, Logf)
}
