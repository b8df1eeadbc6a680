package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDepfileBytesBasic(t *testing.T) {
	deps := ParseDepfileBytes([]byte("foo.o: foo.c foo.h bar.h\n"))
	assert.Equal(t, []string{"foo.c", "foo.h", "bar.h"}, deps)
}

func TestParseDepfileBytesContinuations(t *testing.T) {
	deps := ParseDepfileBytes([]byte("foo.o: foo.c \\\n  foo.h \\\n  bar.h\n"))
	assert.Equal(t, []string{"foo.c", "foo.h", "bar.h"}, deps)
}

func TestParseDepfileBytesNoColon(t *testing.T) {
	assert.Nil(t, ParseDepfileBytes([]byte("garbage")))
}
