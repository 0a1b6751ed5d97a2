package queryparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_SplitsOnWhitespace(t *testing.T) {
	assert.Equal(t, []string{"LOAD", "Students"}, Tokenize("LOAD Students"))
}

func TestTokenize_IsolatesCommaParenEquals(t *testing.T) {
	got := Tokenize("INSERT INTO Students ( id = 1, name = 2 )")
	want := []string{"INSERT", "INTO", "Students", "(", "id", "=", "1", ",", "name", "=", "2", ")"}
	assert.Equal(t, want, got)
}

func TestTokenize_EmptyLine(t *testing.T) {
	assert.Empty(t, Tokenize("   "))
}

func TestTokenize_CollapsesRepeatedSpaces(t *testing.T) {
	got := Tokenize("R <-   PROJECT  id,name   FROM Students")
	want := []string{"R", "<-", "PROJECT", "id", ",", "name", "FROM", "Students"}
	assert.Equal(t, want, got)
}
