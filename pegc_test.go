package pegc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t testing.TB, text string) *Parser {
	t.Helper()

	parser, err := Compile(text)
	require.NoError(t, err)
	return parser
}

func Test_Compile_Values(t *testing.T) {
	t.Run("repetition length via action", func(t *testing.T) {
		parser := mustCompile(t, `start = as:"a"* { return len(as.([]any)) }`)

		value, err := parser.Parse("aaaa")
		require.NoError(t, err)
		assert.Equal(t, 4, value)

		value, err = parser.Parse("")
		require.NoError(t, err)
		assert.Equal(t, 0, value)
	})

	t.Run("labeled sequence splat", func(t *testing.T) {
		parser := mustCompile(t, `start = a:"x" b:"y" { return a.(string) + b.(string) }`)

		value, err := parser.Parse("xy")
		require.NoError(t, err)
		assert.Equal(t, "xy", value)
	})

	t.Run("prioritized choice backtracks", func(t *testing.T) {
		parser := mustCompile(t, `start = "a" "b" / "a" "c"`)

		value, err := parser.Parse("ac")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "c"}, value)

		value, err = parser.Parse("ab")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, value)
	})

	t.Run("first matching alternative wins", func(t *testing.T) {
		parser := mustCompile(t, `start = "a" { return 1 } / "a" { return 2 }`)

		value, err := parser.Parse("a")
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	t.Run("positive lookahead does not consume", func(t *testing.T) {
		parser := mustCompile(t, `start = &"a" .`)

		value, err := parser.Parse("a")
		require.NoError(t, err)
		assert.Equal(t, []any{"", "a"}, value)

		_, err = parser.Parse("b")
		require.Error(t, err)
	})

	t.Run("negative lookahead", func(t *testing.T) {
		parser := mustCompile(t, `start = !"a" .`)

		value, err := parser.Parse("b")
		require.NoError(t, err)
		assert.Equal(t, []any{"", "b"}, value)

		_, err = parser.Parse("a")
		require.Error(t, err)

		syntaxErr, ok := err.(*SyntaxError)
		require.True(t, ok)
		assert.Equal(t, 1, syntaxErr.Line)
		assert.Equal(t, 1, syntaxErr.Column)
	})

	t.Run("optional produces empty string when absent", func(t *testing.T) {
		parser := mustCompile(t, `start = "a"? "b"`)

		value, err := parser.Parse("b")
		require.NoError(t, err)
		assert.Equal(t, []any{"", "b"}, value)

		value, err = parser.Parse("ab")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, value)
	})

	t.Run("one or more requires a first match", func(t *testing.T) {
		parser := mustCompile(t, `start = "a"+`)

		value, err := parser.Parse("aa")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "a"}, value)

		_, err = parser.Parse("")
		require.Error(t, err)
	})

	t.Run("semantic predicates", func(t *testing.T) {
		parser := mustCompile(t, `start = &{ return true } "a"`)
		value, err := parser.Parse("a")
		require.NoError(t, err)
		assert.Equal(t, []any{"", "a"}, value)

		parser = mustCompile(t, `start = !{ return true } "a"`)
		_, err = parser.Parse("a")
		require.Error(t, err)
	})

	t.Run("character classes", func(t *testing.T) {
		parser := mustCompile(t, `start = [a-c]+`)

		value, err := parser.Parse("cab")
		require.NoError(t, err)
		assert.Equal(t, []any{"c", "a", "b"}, value)

		_, err = parser.Parse("d")
		require.Error(t, err)
	})

	t.Run("inverted empty class matches any character", func(t *testing.T) {
		parser := mustCompile(t, `start = [^]`)

		value, err := parser.Parse("x")
		require.NoError(t, err)
		assert.Equal(t, "x", value)
	})

	t.Run("empty class matches nothing", func(t *testing.T) {
		parser := mustCompile(t, `start = []`)

		_, err := parser.Parse("x")
		require.Error(t, err)
	})

	t.Run("initializer declarations are visible to actions", func(t *testing.T) {
		parser := mustCompile(t, `
{
	func double(n int) int { return n * 2 }
}
start = ds:"d"* { return double(len(ds.([]any))) }
`)

		value, err := parser.Parse("dd")
		require.NoError(t, err)
		assert.Equal(t, 4, value)
	})

	t.Run("memoized rule reuse across alternatives", func(t *testing.T) {
		parser := mustCompile(t, "start = a \"b\" / a \"c\"\na = \"x\"")

		value, err := parser.Parse("xc")
		require.NoError(t, err)
		assert.Equal(t, []any{"x", "c"}, value)
	})

	t.Run("proxy rules are transparent", func(t *testing.T) {
		parser := mustCompile(t, `s = x; x = "a"`)

		value, err := parser.Parse("a")
		require.NoError(t, err)
		assert.Equal(t, "a", value)
		assert.NotContains(t, parser.ToSource(), "parse_s")
	})
}

func Test_Compile_Errors(t *testing.T) {
	t.Run("left recursion is rejected at compile time", func(t *testing.T) {
		_, err := Compile(`s = s "a" / "a"`)
		require.Error(t, err)

		grammarErr, ok := err.(*GrammarError)
		require.True(t, ok)
		assert.Equal(t, `Left recursion detected for rule "s".`, grammarErr.Message)
	})

	t.Run("undefined reference is rejected at compile time", func(t *testing.T) {
		_, err := Compile(`s = missing`)
		require.Error(t, err)
		assert.IsType(t, &GrammarError{}, err)
	})

	t.Run("meta-grammar syntax error", func(t *testing.T) {
		_, err := Compile("start @")
		require.Error(t, err)
		assert.IsType(t, &SyntaxError{}, err)
	})

	t.Run("empty input fails at line 1 column 1", func(t *testing.T) {
		parser := mustCompile(t, `start = "a"`)

		_, err := parser.Parse("")
		require.Error(t, err)

		syntaxErr, ok := err.(*SyntaxError)
		require.True(t, ok)
		assert.Equal(t, `Expected "a" but end of input found.`, syntaxErr.Message)
		assert.Equal(t, 1, syntaxErr.Line)
		assert.Equal(t, 1, syntaxErr.Column)
	})

	t.Run("unconsumed input fails", func(t *testing.T) {
		parser := mustCompile(t, `start = "a"`)

		_, err := parser.Parse("ab")
		require.Error(t, err)
		assert.IsType(t, &SyntaxError{}, err)
	})

	t.Run("expectations are merged and sorted", func(t *testing.T) {
		parser := mustCompile(t, `start = ("a" / "\n")+`)

		_, err := parser.Parse("a\nb")
		require.Error(t, err)

		syntaxErr, ok := err.(*SyntaxError)
		require.True(t, ok)
		assert.Equal(t, `Expected "\n" or "a" but "b" found.`, syntaxErr.Message)
		assert.Equal(t, 2, syntaxErr.Line)
		assert.Equal(t, 1, syntaxErr.Column)
	})

	t.Run("display name replaces inner expectations", func(t *testing.T) {
		parser := mustCompile(t, `start "letter a" = "a"`)

		_, err := parser.Parse("b")
		require.Error(t, err)

		syntaxErr, ok := err.(*SyntaxError)
		require.True(t, ok)
		assert.Equal(t, `Expected letter a but "b" found.`, syntaxErr.Message)
	})

	t.Run("crlf counts as a single line break", func(t *testing.T) {
		parser := mustCompile(t, `start = ("a" / "\r\n")+`)

		_, err := parser.Parse("a\r\nb")
		require.Error(t, err)

		syntaxErr, ok := err.(*SyntaxError)
		require.True(t, ok)
		assert.Equal(t, 2, syntaxErr.Line)
		assert.Equal(t, 1, syntaxErr.Column)
	})
}

func Test_Compile_Source(t *testing.T) {
	t.Run("ToSource matches CompileToSource", func(t *testing.T) {
		text := "start = \"a\" rest\nrest = [0-9]*"

		source, err := CompileToSource(text)
		require.NoError(t, err)

		parser, err := Compile(text)
		require.NoError(t, err)
		assert.Equal(t, source, parser.ToSource())
	})

	t.Run("custom package name", func(t *testing.T) {
		parser, err := Compile(`start = "a"`, WithPackageName("calc"))
		require.NoError(t, err)
		assert.Contains(t, parser.ToSource(), "package calc\n")

		value, err := parser.Parse("a")
		require.NoError(t, err)
		assert.Equal(t, "a", value)
	})
}
