package rules

import (
	"os"
	"strings"
)

// ParseDepfile parses GCC `-MMD` dependency output: `target: dep1 dep2 \`
// with backslash line continuations. It returns the listed deps (the
// tokens after the first colon), which compile rules inject as extra
// dependencies of the object target (spec.md §4.4, §6).
func ParseDepfile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDepfileBytes(data), nil
}

// ParseDepfileBytes is ParseDepfile's testable core.
func ParseDepfileBytes(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\\\n", " ")
	colon := strings.IndexByte(text, ':')
	if colon < 0 {
		return nil
	}
	fields := strings.Fields(text[colon+1:])
	deps := make([]string, 0, len(fields))
	for _, f := range fields {
		deps = append(deps, f)
	}
	return deps
}
