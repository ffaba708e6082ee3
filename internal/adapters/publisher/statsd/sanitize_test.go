package statsd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no whitespace", "jvm.memory.heap", "jvm.memory.heap"},
		{"single space", "name woo", "name-woo"},
		{"run of spaces", "name   woo", "name-woo"},
		{"mixed whitespace run", "a \t\n\r\v\fb", "a-b"},
		{"leading and trailing", "  a b  ", "-a-b-"},
		{"only whitespace", "\t \n", "-"},
		{"unicode space", "a\u2003\u00a0b", "a-b"},
		{"multibyte kept", "héllo wörld", "héllo-wörld"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"", " ", "a", "a b", " a  b\t\tc ", "x\n\ny", "--  --", "tab\tand space ",
		strings.Repeat(" a", 50),
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
		assert.NotContains(t, once, " ")
	}
}

func TestSanitize_NoAllocWithoutWhitespace(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = Sanitize("group.type.scope.name")
	})
	assert.Zero(t, allocs)
}
