package pegc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// interpolationPattern matches ${name} and ${name|filter} placeholders in
// code templates.
var interpolationPattern = regexp2.MustCompile(
	`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:\|([A-Za-z_][A-Za-z0-9_]*))?\}`,
	regexp2.RE2,
)

// formatCode assembles emitted source from template parts. Each part may
// contain ${name} or ${name|filter} placeholders resolved against the vars
// map given as the (optional) last argument. Parts are joined with a
// newline; a multi-line part whose first line starts with whitespace has
// that whitespace repeated on its remaining lines, so inlined multi-line
// values keep the template's visual indent.
//
// Unknown variables and filters are emitter bugs and panic.
func formatCode(parts ...any) string {
	vars := map[string]string{}
	textParts := make([]string, 0, len(parts))
	for i, part := range parts {
		switch v := part.(type) {
		case string:
			textParts = append(textParts, v)
		case map[string]string:
			if i != len(parts)-1 {
				panic("formatCode: vars must be the last argument")
			}
			vars = v
		default:
			panic(fmt.Sprintf("formatCode: unsupported part type %T", part))
		}
	}

	formatted := make([]string, 0, len(textParts))
	for _, part := range textParts {
		substituted, err := interpolationPattern.ReplaceFunc(part, func(m regexp2.Match) string {
			name := m.Groups()[1].String()
			filter := m.Groups()[2].String()

			value, ok := vars[name]
			if !ok {
				panic(fmt.Sprintf("formatCode: unknown variable %q", name))
			}

			switch filter {
			case "":
				return value
			case "string":
				return quoteGoString(value)
			default:
				panic(fmt.Sprintf("formatCode: unknown filter %q", filter))
			}
		}, -1, -1)
		if err != nil {
			panic(fmt.Sprintf("formatCode: %s", err))
		}

		formatted = append(formatted, preserveIndent(substituted))
	}

	return strings.Join(formatted, "\n")
}

func preserveIndent(part string) string {
	lines := strings.Split(part, "\n")
	if len(lines) < 2 {
		return part
	}

	indent := part[:len(part)-len(strings.TrimLeft(part, " \t"))]
	if indent == "" {
		return part
	}
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}

	return strings.Join(lines, "\n")
}

// uniqueNames hands out prefix0, prefix1, ... per prefix. The emitter resets
// it at every rule boundary so that local grammar edits produce local
// changes in the emitted source.
type uniqueNames struct {
	counters map[string]int
}

func newUniqueNames() *uniqueNames {
	return &uniqueNames{counters: make(map[string]int)}
}

func (u *uniqueNames) next(prefix string) string {
	n := u.counters[prefix]
	u.counters[prefix] = n + 1
	return prefix + strconv.Itoa(n)
}

// used reports how many names were handed out for prefix since the last
// reset.
func (u *uniqueNames) used(prefix string) int {
	return u.counters[prefix]
}

func (u *uniqueNames) reset() {
	u.counters = make(map[string]int)
}
