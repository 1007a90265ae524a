package pegc

import (
	"strconv"
	"strings"
)

// emitGrammar renders a normalized AGT as a self-contained Go source file.
// Output is deterministic: rules are emitted in declaration order and the
// per-rule variable counters restart at every rule, so local grammar edits
// produce local source edits.
func emitGrammar(g *Grammar, packageName string) string {
	e := &emitter{names: newUniqueNames()}

	header := formatCode(
		"// Code generated by pegc. DO NOT EDIT.",
		"",
		"package ${packageName}",
		"",
		"import (",
		"	\"sort\"",
		"	\"strconv\"",
		"	\"strings\"",
		")",
		map[string]string{"packageName": packageName},
	)

	sections := []string{header}
	if g.Initializer != "" {
		sections = append(sections, "", g.Initializer)
	}
	sections = append(sections, "", parserRuntime)
	for _, name := range g.RuleNames {
		sections = append(sections, "", e.emitRule(g.Rules[name]))
	}
	sections = append(sections, "", e.emitParseFunc(g), "")

	return strings.Join(sections, "\n")
}

type emitter struct {
	names *uniqueNames
}

// parserRuntime is the grammar-independent part of every emitted parser:
// error type, failure sentinel, parser state, and failure bookkeeping.
const parserRuntime = `// SyntaxError is reported when the input does not match the grammar.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return e.Message + " (line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + ")"
}

// Describe reports the structured fields of a *SyntaxError, for callers
// holding it as a plain error.
func Describe(err error) (message string, line int, column int, ok bool) {
	se, isSyntaxError := err.(*SyntaxError)
	if !isSyntaxError {
		return "", 0, 0, false
	}
	return se.Message, se.Line, se.Column, true
}

type failureMarker struct{}

// failed marks the absence of a semantic value. It is distinct from every
// successful value, including "" and empty lists.
var failed = &failureMarker{}

type cacheEntry struct {
	nextPos int
	result  any
}

type parser struct {
	input                 []rune
	pos                   int
	reportFailures        bool
	rightmostFailPos      int
	rightmostFailExpected []string
	cache                 map[string]cacheEntry
}

func (p *parser) recordFailure(expected string) {
	if p.pos < p.rightmostFailPos {
		return
	}
	if p.pos > p.rightmostFailPos {
		p.rightmostFailPos = p.pos
		p.rightmostFailExpected = p.rightmostFailExpected[:0]
	}
	for _, e := range p.rightmostFailExpected {
		if e == expected {
			return
		}
	}
	p.rightmostFailExpected = append(p.rightmostFailExpected, expected)
}

func (p *parser) buildErrorMessage() string {
	expected := append([]string(nil), p.rightmostFailExpected...)
	sort.Strings(expected)

	var expectedDesc string
	switch len(expected) {
	case 0:
		expectedDesc = "end of input"
	case 1:
		expectedDesc = expected[0]
	default:
		expectedDesc = strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
	}

	offset := p.rightmostFailPos
	if p.pos > offset {
		offset = p.pos
	}
	actualDesc := "end of input"
	if offset < len(p.input) {
		actualDesc = strconv.Quote(string(p.input[offset]))
	}

	return "Expected " + expectedDesc + " but " + actualDesc + " found."
}

// computeErrorPosition reports the 1-based line and column of the rightmost
// failure. "\r\n" counts as a single line break, as do U+2028 and U+2029.
func (p *parser) computeErrorPosition() (int, int) {
	line, column := 1, 1
	seenCR := false

	offset := p.rightmostFailPos
	if offset > len(p.input) {
		offset = len(p.input)
	}
	for i := 0; i < offset; i++ {
		switch p.input[i] {
		case '\n':
			if !seenCR {
				line++
			}
			column = 1
			seenCR = false
		case '\r', '\u2028', '\u2029':
			line++
			column = 1
			seenCR = true
		default:
			column++
			seenCR = false
		}
	}

	return line, column
}`

func (e *emitter) emitParseFunc(g *Grammar) string {
	return formatCode(
		"// Parse runs the parser over input, returning the start rule's value.",
		"// On failure it returns a *SyntaxError describing the rightmost failure.",
		"func Parse(input string) (any, error) {",
		"	p := &parser{",
		"		input:          []rune(input),",
		"		reportFailures: true,",
		"		cache:          make(map[string]cacheEntry),",
		"	}",
		"",
		"	result := p.parse_${startRule}()",
		"	if result == failed || p.pos != len(p.input) {",
		"		line, column := p.computeErrorPosition()",
		"		return nil, &SyntaxError{",
		"			Message: p.buildErrorMessage(),",
		"			Line:    line,",
		"			Column:  column,",
		"		}",
		"	}",
		"",
		"	return result, nil",
		"}",
		map[string]string{"startRule": g.StartRule},
	)
}

// emitRule renders one packrat rule function. The unique-name counters are
// reset here, per rule.
func (e *emitter) emitRule(rule *Rule) string {
	e.names.reset()

	saveVar := ""
	if rule.DisplayName != "" {
		saveVar = e.names.next("savedReportFailures")
	}

	bodyCode, resultVar := e.compileExpr(rule.Expr)

	parts := []any{
		"func (p *parser) parse_${ruleName}() any {",
		"	key := ${cacheKeyPrefix|string} + strconv.Itoa(p.pos)",
		"	if entry, ok := p.cache[key]; ok {",
		"		p.pos = entry.nextPos",
		"		return entry.result",
		"	}",
		"",
	}
	for _, decl := range e.varDeclarations() {
		parts = append(parts, decl)
	}
	parts = append(parts, "")

	if rule.DisplayName != "" {
		parts = append(parts,
			"	${saveVar} = p.reportFailures",
			"	p.reportFailures = false",
			"	${bodyCode}",
			"	p.reportFailures = ${saveVar}",
			"	if p.reportFailures && ${resultVar} == failed {",
			"		p.recordFailure(${displayName|string})",
			"	}",
		)
	} else {
		parts = append(parts, "	${bodyCode}")
	}

	parts = append(parts,
		"",
		"	p.cache[key] = cacheEntry{nextPos: p.pos, result: ${resultVar}}",
		"	return ${resultVar}",
		"}",
		map[string]string{
			"ruleName":       rule.Name,
			"cacheKeyPrefix": rule.Name + "@",
			"bodyCode":       bodyCode,
			"resultVar":      resultVar,
			"displayName":    rule.DisplayName,
			"saveVar":        saveVar,
		},
	)

	return formatCode(parts...)
}

// varDeclarations renders the hoisted declarations for every name handed
// out while compiling the current rule body.
func (e *emitter) varDeclarations() []string {
	var decls []string
	appendDecl := func(prefix, typ string) {
		n := e.names.used(prefix)
		if n == 0 {
			return
		}
		names := make([]string, n)
		for i := range names {
			names[i] = prefix + strconv.Itoa(i)
		}
		decls = append(decls, "\tvar "+strings.Join(names, ", ")+" "+typ)
	}

	appendDecl("savedReportFailures", "bool")
	appendDecl("result", "any")
	appendDecl("results", "[]any")
	appendDecl("pos", "int")
	return decls
}

// compileExpr renders the matching code for one expression. The returned
// code is unindented; enclosing templates re-indent it. The returned name
// is the variable holding the expression's value (or the failed sentinel)
// after the code runs.
func (e *emitter) compileExpr(expr Expression) (string, string) {
	switch node := expr.(type) {
	case *Choice:
		return e.compileChoice(node)
	case *Sequence:
		return e.compileSequence(node)
	case *Labeled:
		// The label itself only matters to an enclosing action.
		return e.compileExpr(node.Expr)
	case *SimpleAnd:
		return e.compileLookahead(node.Expr, false)
	case *SimpleNot:
		return e.compileLookahead(node.Expr, true)
	case *SemanticAnd:
		return e.compileSemanticPredicate(node.Code, false)
	case *SemanticNot:
		return e.compileSemanticPredicate(node.Code, true)
	case *Optional:
		return e.compileOptional(node)
	case *ZeroOrMore:
		return e.compileZeroOrMore(node)
	case *OneOrMore:
		return e.compileOneOrMore(node)
	case *Action:
		return e.compileAction(node)
	case *RuleRef:
		resultVar := e.names.next("result")
		code := formatCode(
			"${resultVar} = p.parse_${name}()",
			map[string]string{"resultVar": resultVar, "name": node.Name},
		)
		return code, resultVar
	case *Literal:
		return e.compileLiteral(node)
	case *AnyChar:
		resultVar := e.names.next("result")
		code := formatCode(
			"if p.pos < len(p.input) {",
			"	${resultVar} = string(p.input[p.pos])",
			"	p.pos++",
			"} else {",
			"	${resultVar} = failed",
			"	if p.reportFailures {",
			"		p.recordFailure(\"any character\")",
			"	}",
			"}",
			map[string]string{"resultVar": resultVar},
		)
		return code, resultVar
	case *CharClass:
		return e.compileCharClass(node)
	default:
		panic("compileExpr: unknown expression kind")
	}
}

func (e *emitter) compileChoice(node *Choice) (string, string) {
	resultVar := e.names.next("result")

	codes := make([]string, len(node.Alternatives))
	vars := make([]string, len(node.Alternatives))
	for i, alt := range node.Alternatives {
		codes[i], vars[i] = e.compileExpr(alt)
	}

	code := formatCode(
		"${resultVar} = failed",
		map[string]string{"resultVar": resultVar},
	)
	for i := len(node.Alternatives) - 1; i >= 0; i-- {
		code = formatCode(
			"${altCode}",
			"if ${altVar} != failed {",
			"	${resultVar} = ${altVar}",
			"} else {",
			"	${innerCode}",
			"}",
			map[string]string{
				"altCode":   codes[i],
				"altVar":    vars[i],
				"resultVar": resultVar,
				"innerCode": code,
			},
		)
	}

	return code, resultVar
}

func (e *emitter) compileSequence(node *Sequence) (string, string) {
	resultVar := e.names.next("result")
	if len(node.Elements) == 0 {
		return resultVar + " = []any{}", resultVar
	}

	posVar := e.names.next("pos")

	codes := make([]string, len(node.Elements))
	vars := make([]string, len(node.Elements))
	for i, element := range node.Elements {
		codes[i], vars[i] = e.compileExpr(element)
	}

	code := formatCode(
		"${resultVar} = []any{${elementVars}}",
		map[string]string{
			"resultVar":   resultVar,
			"elementVars": strings.Join(vars, ", "),
		},
	)
	for i := len(node.Elements) - 1; i >= 0; i-- {
		code = formatCode(
			"${elementCode}",
			"if ${elementVar} != failed {",
			"	${innerCode}",
			"} else {",
			"	${resultVar} = failed",
			"	p.pos = ${posVar}",
			"}",
			map[string]string{
				"elementCode": codes[i],
				"elementVar":  vars[i],
				"innerCode":   code,
				"resultVar":   resultVar,
				"posVar":      posVar,
			},
		)
	}

	return formatCode(
		"${posVar} = p.pos",
		"${code}",
		map[string]string{"posVar": posVar, "code": code},
	), resultVar
}

func (e *emitter) compileLookahead(expr Expression, negative bool) (string, string) {
	resultVar := e.names.next("result")
	posVar := e.names.next("pos")
	saveVar := e.names.next("savedReportFailures")

	exprCode, exprVar := e.compileExpr(expr)

	vars := map[string]string{
		"resultVar": resultVar,
		"posVar":    posVar,
		"saveVar":   saveVar,
		"exprCode":  exprCode,
		"exprVar":   exprVar,
	}

	if negative {
		return formatCode(
			"${posVar} = p.pos",
			"${saveVar} = p.reportFailures",
			"p.reportFailures = false",
			"${exprCode}",
			"p.reportFailures = ${saveVar}",
			"if ${exprVar} == failed {",
			"	${resultVar} = \"\"",
			"} else {",
			"	${resultVar} = failed",
			"	p.pos = ${posVar}",
			"}",
			vars,
		), resultVar
	}

	return formatCode(
		"${posVar} = p.pos",
		"${saveVar} = p.reportFailures",
		"p.reportFailures = false",
		"${exprCode}",
		"p.reportFailures = ${saveVar}",
		"if ${exprVar} != failed {",
		"	${resultVar} = \"\"",
		"	p.pos = ${posVar}",
		"} else {",
		"	${resultVar} = failed",
		"}",
		vars,
	), resultVar
}

func (e *emitter) compileSemanticPredicate(code string, negative bool) (string, string) {
	resultVar := e.names.next("result")

	condition := "if (func() bool {"
	if negative {
		condition = "if !(func() bool {"
	}

	return formatCode(
		condition,
		"	${predicateCode}",
		"})() {",
		"	${resultVar} = \"\"",
		"} else {",
		"	${resultVar} = failed",
		"}",
		map[string]string{
			"predicateCode": code,
			"resultVar":     resultVar,
		},
	), resultVar
}

func (e *emitter) compileOptional(node *Optional) (string, string) {
	resultVar := e.names.next("result")
	exprCode, exprVar := e.compileExpr(node.Expr)

	return formatCode(
		"${exprCode}",
		"if ${exprVar} != failed {",
		"	${resultVar} = ${exprVar}",
		"} else {",
		"	${resultVar} = \"\"",
		"}",
		map[string]string{
			"exprCode":  exprCode,
			"exprVar":   exprVar,
			"resultVar": resultVar,
		},
	), resultVar
}

func (e *emitter) compileZeroOrMore(node *ZeroOrMore) (string, string) {
	resultVar := e.names.next("result")
	resultsVar := e.names.next("results")
	exprCode, exprVar := e.compileExpr(node.Expr)

	return formatCode(
		"${resultsVar} = []any{}",
		"${exprCode}",
		"for ${exprVar} != failed {",
		"	${resultsVar} = append(${resultsVar}, ${exprVar})",
		"	${exprCode}",
		"}",
		"${resultVar} = ${resultsVar}",
		map[string]string{
			"resultsVar": resultsVar,
			"exprCode":   exprCode,
			"exprVar":    exprVar,
			"resultVar":  resultVar,
		},
	), resultVar
}

func (e *emitter) compileOneOrMore(node *OneOrMore) (string, string) {
	resultVar := e.names.next("result")
	resultsVar := e.names.next("results")
	exprCode, exprVar := e.compileExpr(node.Expr)

	return formatCode(
		"${exprCode}",
		"if ${exprVar} != failed {",
		"	${resultsVar} = []any{}",
		"	for ${exprVar} != failed {",
		"		${resultsVar} = append(${resultsVar}, ${exprVar})",
		"		${exprCode}",
		"	}",
		"	${resultVar} = ${resultsVar}",
		"} else {",
		"	${resultVar} = failed",
		"}",
		map[string]string{
			"exprCode":   exprCode,
			"exprVar":    exprVar,
			"resultsVar": resultsVar,
			"resultVar":  resultVar,
		},
	), resultVar
}

func (e *emitter) compileAction(node *Action) (string, string) {
	resultVar := e.names.next("result")
	exprCode, exprVar := e.compileExpr(node.Expr)
	params, args := actionArguments(node.Expr, exprVar)

	return formatCode(
		"${exprCode}",
		"if ${exprVar} != failed {",
		"	${resultVar} = (func(${params}) any {",
		"		${actionCode}",
		"	})(${args})",
		"} else {",
		"	${resultVar} = failed",
		"}",
		map[string]string{
			"exprCode":   exprCode,
			"exprVar":    exprVar,
			"resultVar":  resultVar,
			"params":     params,
			"args":       args,
			"actionCode": node.Code,
		},
	), resultVar
}

// actionArguments computes the action splat: one any-typed parameter per
// labeled element of a wrapped sequence (bound by position into the
// sequence's value list), a single parameter for a wrapped labeled
// expression, none otherwise.
func actionArguments(expr Expression, exprVar string) (params string, args string) {
	switch e := expr.(type) {
	case *Sequence:
		var paramList, argList []string
		for i, element := range e.Elements {
			labeled, ok := element.(*Labeled)
			if !ok {
				continue
			}
			paramList = append(paramList, labeled.Label+" any")
			argList = append(argList, exprVar+".([]any)["+strconv.Itoa(i)+"]")
		}
		return strings.Join(paramList, ", "), strings.Join(argList, ", ")
	case *Labeled:
		return e.Label + " any", exprVar
	default:
		return "", ""
	}
}

func (e *emitter) compileLiteral(node *Literal) (string, string) {
	resultVar := e.names.next("result")

	value := node.Value
	runes := []rune(value)
	if len(runes) == 0 {
		return resultVar + " = \"\"", resultVar
	}

	var condition, advance string
	if len(runes) == 1 {
		condition = "p.pos < len(p.input) && p.input[p.pos] == " + quoteGoRune(runes[0])
		advance = "p.pos++"
	} else {
		length := strconv.Itoa(len(runes))
		condition = "p.pos+" + length + " <= len(p.input) && string(p.input[p.pos:p.pos+" + length + "]) == " + quoteGoString(value)
		advance = "p.pos += " + length
	}

	return formatCode(
		"if ${condition} {",
		"	${resultVar} = ${value|string}",
		"	${advance}",
		"} else {",
		"	${resultVar} = failed",
		"	if p.reportFailures {",
		"		p.recordFailure(${expectation|string})",
		"	}",
		"}",
		map[string]string{
			"condition":   condition,
			"resultVar":   resultVar,
			"value":       value,
			"advance":     advance,
			"expectation": quoteForError(value),
		},
	), resultVar
}

func (e *emitter) compileCharClass(node *CharClass) (string, string) {
	resultVar := e.names.next("result")

	terms := make([]string, 0, len(node.Parts))
	for _, part := range node.Parts {
		if part.Low == part.High {
			terms = append(terms, "p.input[p.pos] == "+quoteGoRune(part.Low))
		} else {
			terms = append(terms, "(p.input[p.pos] >= "+quoteGoRune(part.Low)+" && p.input[p.pos] <= "+quoteGoRune(part.High)+")")
		}
	}

	condition := strings.Join(terms, " || ")
	if condition == "" {
		condition = "false"
	}
	switch {
	case node.Inverted:
		condition = "!(" + condition + ")"
	case len(terms) > 1:
		condition = "(" + condition + ")"
	}

	return formatCode(
		"if p.pos < len(p.input) && ${condition} {",
		"	${resultVar} = string(p.input[p.pos])",
		"	p.pos++",
		"} else {",
		"	${resultVar} = failed",
		"	if p.reportFailures {",
		"		p.recordFailure(${expectation|string})",
		"	}",
		"}",
		map[string]string{
			"condition":   condition,
			"resultVar":   resultVar,
			"expectation": node.RawText,
		},
	), resultVar
}
