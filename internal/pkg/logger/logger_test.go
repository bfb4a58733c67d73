package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{" warn ", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"", INFO},
		{"bogus", INFO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestRedactCustomerID(t *testing.T) {
	assert.Equal(t, "78af***", RedactCustomerID("78afa995795e4d85b5d9ceeca43f5fef"))
	assert.Equal(t, "***", RedactCustomerID("ab"))
	assert.Equal(t, "***", RedactCustomerID(""))
	assert.Equal(t, "***", RedactCustomerID("abcd"))
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "78af***", redactValue("customer_id", "78afa995795e4d85"))
	assert.Equal(t, "78af***", redactValue("CustomerID", "78afa995795e4d85"))
	assert.Equal(t, "unmasked", redactValue("offer_id", "unmasked"))
}
