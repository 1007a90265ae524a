// Package pegc compiles Parsing Expression Grammars into standalone Go
// parsers. A grammar is parsed into an abstract grammar tree, validated
// (references resolve, no left recursion) and simplified (proxy rules are
// removed), then rendered as the source of a packrat recursive-descent
// parser with memoization, prioritized choice, rightmost-failure error
// reporting, and embedded Go semantic actions.
package pegc

import (
	"fmt"

	"github.com/cogentcore/yaegi/interp"
	"github.com/cogentcore/yaegi/stdlib"
)

const defaultPackageName = "parser"

type compileOptions struct {
	packageName string
	debug       bool
}

func (opts *compileOptions) debugf(format string, args ...any) {
	if opts.debug {
		fmt.Printf("[pegc] "+format, args...)
	}
}

func createCompileOpts(opts ...CompileOption) *compileOptions {
	compileOpts := &compileOptions{
		packageName: defaultPackageName,
	}
	for _, o := range opts {
		o(compileOpts)
	}
	return compileOpts
}

// CompileOption configures a compilation.
type CompileOption func(*compileOptions)

// WithPackageName sets the package name of the emitted parser source.
func WithPackageName(name string) CompileOption {
	return func(opts *compileOptions) {
		opts.packageName = name
	}
}

// CompileWithDebug enables a compile-time trace on stdout.
func CompileWithDebug(debug bool) CompileOption {
	return func(opts *compileOptions) {
		opts.debug = debug
	}
}

// CompileToSource compiles PEG grammar text into the source of a standalone
// Go parser. It returns a *SyntaxError when the grammar text does not match
// the meta-grammar and a *GrammarError when semantic analysis fails.
func CompileToSource(text string, opts ...CompileOption) (string, error) {
	compileOpts := createCompileOpts(opts...)

	grammar, err := parseMetaGrammar(text)
	if err != nil {
		return "", err
	}
	compileOpts.debugf("parsed %s\n", grammar)

	if err := analyze(grammar); err != nil {
		return "", err
	}
	compileOpts.debugf("analyzed, %d rules remain, start rule %q\n", len(grammar.Rules), grammar.StartRule)

	return emitGrammar(grammar, compileOpts.packageName), nil
}

// Parser is an in-memory parser compiled from grammar text.
type Parser struct {
	source   string
	parse    func(string) (any, error)
	describe func(error) (string, int, int, bool)
}

// Compile compiles PEG grammar text and evaluates the emitted source into
// an in-memory parser.
func Compile(text string, opts ...CompileOption) (*Parser, error) {
	compileOpts := createCompileOpts(opts...)

	source, err := CompileToSource(text, opts...)
	if err != nil {
		return nil, err
	}
	compileOpts.debugf("emitted %d bytes of source\n", len(source))

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("prepare interpreter: %w", err)
	}
	if _, err := i.Eval(source); err != nil {
		return nil, fmt.Errorf("evaluate generated parser: %w", err)
	}

	parseValue, err := i.Eval(compileOpts.packageName + ".Parse")
	if err != nil {
		return nil, fmt.Errorf("load generated Parse: %w", err)
	}
	parseFn, ok := parseValue.Interface().(func(string) (any, error))
	if !ok {
		return nil, fmt.Errorf("generated Parse has unexpected type %T", parseValue.Interface())
	}

	describeValue, err := i.Eval(compileOpts.packageName + ".Describe")
	if err != nil {
		return nil, fmt.Errorf("load generated Describe: %w", err)
	}
	describeFn, ok := describeValue.Interface().(func(error) (string, int, int, bool))
	if !ok {
		return nil, fmt.Errorf("generated Describe has unexpected type %T", describeValue.Interface())
	}

	return &Parser{
		source:   source,
		parse:    parseFn,
		describe: describeFn,
	}, nil
}

// Parse runs the compiled parser over input. On success it returns the
// start rule's semantic value; on failure a *SyntaxError positioned at the
// rightmost failure.
func (p *Parser) Parse(input string) (any, error) {
	result, err := p.parse(input)
	if err != nil {
		if message, line, column, ok := p.describe(err); ok {
			return nil, &SyntaxError{Message: message, Line: line, Column: column}
		}
		return nil, err
	}

	return result, nil
}

// ToSource returns the emitted parser source this parser was built from.
func (p *Parser) ToSource() string {
	return p.source
}
