package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog_OrderAndGlyphs(t *testing.T) {
	l := New()
	l.Stepf("Fetching main page: %s", "https://example.com")
	l.OKf("Movie name found: %s", "Sample")
	l.Warnf("Image not found")
	l.Failf("Error resolving %s: %s", "720p", "boom")

	assert.Equal(t, []string{
		"➡️ Fetching main page: https://example.com",
		"✅ Movie name found: Sample",
		"⚠️ Image not found",
		"❌ Error resolving 720p: boom",
	}, l.Strings())
	assert.Equal(t, 4, l.Len())
}

func TestLog_Append(t *testing.T) {
	parent := New()
	parent.Stepf("parent")

	child := New("quality", "720p")
	child.OKf("child")

	parent.Append(child)
	parent.Append(nil)

	entries := parent.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, Entry{Severity: OK, Message: "child"}, entries[1])

	// Entries returns a copy.
	entries[0].Message = "mutated"
	assert.Equal(t, "parent", parent.Entries()[0].Message)
}

func TestLog_NilSafe(t *testing.T) {
	var l *Log
	l.Stepf("ignored")
	l.Append(New())

	assert.Nil(t, l.Strings())
	assert.Nil(t, l.Entries())
	assert.Equal(t, 0, l.Len())
}
