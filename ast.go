package pegc

import (
	"fmt"
	"strings"
)

// Expression is a node of the abstract grammar tree (AGT). The set of
// implementations is closed: every consumer switches exhaustively over the
// concrete types below.
type Expression interface {
	fmt.Stringer

	exprNode()
}

// Grammar is the root of the AGT: an ordered collection of rules plus an
// optional host-language initializer fragment. RuleNames preserves
// declaration order so that analysis and emission are deterministic;
// Rules is keyed by rule name and every key matches its rule's Name.
type Grammar struct {
	Initializer string
	StartRule   string
	RuleNames   []string
	Rules       map[string]*Rule
}

func NewGrammar(initializer string, rules []*Rule) *Grammar {
	rv := &Grammar{
		Initializer: initializer,
		Rules:       make(map[string]*Rule, len(rules)),
	}
	for _, rule := range rules {
		if _, exists := rv.Rules[rule.Name]; !exists {
			rv.RuleNames = append(rv.RuleNames, rule.Name)
		}
		rv.Rules[rule.Name] = rule
	}
	if len(rules) > 0 {
		rv.StartRule = rules[0].Name
	}

	return rv
}

// RemoveRule deletes a rule from both the map and the declaration order.
func (g *Grammar) RemoveRule(name string) {
	delete(g.Rules, name)
	for i, n := range g.RuleNames {
		if n == name {
			g.RuleNames = append(g.RuleNames[:i], g.RuleNames[i+1:]...)
			break
		}
	}
}

func (g *Grammar) String() string {
	return fmt.Sprintf("<Grammar #rules=%d startRule=%q>", len(g.Rules), g.StartRule)
}

// Rule is a named grammar production. DisplayName, when non-empty, replaces
// the rule's individual expectations in error reporting.
type Rule struct {
	Name        string
	DisplayName string
	Expr        Expression
}

func NewRule(name string, displayName string, expr Expression) *Rule {
	return &Rule{
		Name:        name,
		DisplayName: displayName,
		Expr:        expr,
	}
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s = %s", r.Name, r.Expr)
}

// Choice is a prioritized choice: alternatives are tried in order and the
// first success commits.
type Choice struct {
	Alternatives []Expression
}

func NewChoice(alternatives []Expression) *Choice {
	return &Choice{Alternatives: alternatives}
}

// Sequence matches its elements one after another. A sequence may be empty,
// in which case it matches the empty string.
type Sequence struct {
	Elements []Expression
}

func NewSequence(elements []Expression) *Sequence {
	return &Sequence{Elements: elements}
}

// Labeled binds the value of its sub-expression to a label for use by an
// enclosing action.
type Labeled struct {
	Label string
	Expr  Expression
}

func NewLabeled(label string, expr Expression) *Labeled {
	return &Labeled{Label: label, Expr: expr}
}

// SimpleAnd is the positive lookahead &e.
type SimpleAnd struct {
	Expr Expression
}

func NewSimpleAnd(expr Expression) *SimpleAnd {
	return &SimpleAnd{Expr: expr}
}

// SimpleNot is the negative lookahead !e.
type SimpleNot struct {
	Expr Expression
}

func NewSimpleNot(expr Expression) *SimpleNot {
	return &SimpleNot{Expr: expr}
}

// SemanticAnd is the semantic predicate &{code}: succeeds without consuming
// input iff the host-language predicate reports true.
type SemanticAnd struct {
	Code string
}

func NewSemanticAnd(code string) *SemanticAnd {
	return &SemanticAnd{Code: code}
}

// SemanticNot is the semantic predicate !{code}.
type SemanticNot struct {
	Code string
}

func NewSemanticNot(code string) *SemanticNot {
	return &SemanticNot{Code: code}
}

// Optional is e?.
type Optional struct {
	Expr Expression
}

func NewOptional(expr Expression) *Optional {
	return &Optional{Expr: expr}
}

// ZeroOrMore is e*.
type ZeroOrMore struct {
	Expr Expression
}

func NewZeroOrMore(expr Expression) *ZeroOrMore {
	return &ZeroOrMore{Expr: expr}
}

// OneOrMore is e+.
type OneOrMore struct {
	Expr Expression
}

func NewOneOrMore(expr Expression) *OneOrMore {
	return &OneOrMore{Expr: expr}
}

// Action wraps an expression with a host-language action fragment executed
// on successful match; the fragment's return value becomes the node's
// semantic value.
type Action struct {
	Expr Expression
	Code string
}

func NewAction(expr Expression, code string) *Action {
	return &Action{Expr: expr, Code: code}
}

// RuleRef is a by-name reference to another rule.
type RuleRef struct {
	Name string
}

func NewRuleRef(name string) *RuleRef {
	return &RuleRef{Name: name}
}

// Literal matches an exact string.
type Literal struct {
	Value string
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

// AnyChar matches any single character.
type AnyChar struct{}

func NewAnyChar() *AnyChar {
	return &AnyChar{}
}

// ClassPart is one member of a character class: a single character when
// Low == High, otherwise an inclusive range in character-code order.
type ClassPart struct {
	Low  rune
	High rune
}

// CharClass matches one character against an ordered list of parts.
// RawText preserves the textual form for error reporting.
type CharClass struct {
	Inverted bool
	Parts    []ClassPart
	RawText  string
}

func NewCharClass(inverted bool, parts []ClassPart, rawText string) *CharClass {
	return &CharClass{
		Inverted: inverted,
		Parts:    parts,
		RawText:  rawText,
	}
}

var _ Expression = (*Choice)(nil)
var _ Expression = (*Sequence)(nil)
var _ Expression = (*Labeled)(nil)
var _ Expression = (*SimpleAnd)(nil)
var _ Expression = (*SimpleNot)(nil)
var _ Expression = (*SemanticAnd)(nil)
var _ Expression = (*SemanticNot)(nil)
var _ Expression = (*Optional)(nil)
var _ Expression = (*ZeroOrMore)(nil)
var _ Expression = (*OneOrMore)(nil)
var _ Expression = (*Action)(nil)
var _ Expression = (*RuleRef)(nil)
var _ Expression = (*Literal)(nil)
var _ Expression = (*AnyChar)(nil)
var _ Expression = (*CharClass)(nil)

func (*Choice) exprNode()      {}
func (*Sequence) exprNode()    {}
func (*Labeled) exprNode()     {}
func (*SimpleAnd) exprNode()   {}
func (*SimpleNot) exprNode()   {}
func (*SemanticAnd) exprNode() {}
func (*SemanticNot) exprNode() {}
func (*Optional) exprNode()    {}
func (*ZeroOrMore) exprNode()  {}
func (*OneOrMore) exprNode()   {}
func (*Action) exprNode()      {}
func (*RuleRef) exprNode()     {}
func (*Literal) exprNode()     {}
func (*AnyChar) exprNode()     {}
func (*CharClass) exprNode()   {}

// joinExpressionsAsRule renders sub-expressions in PEG surface form,
// parenthesizing composites so the result reads back unambiguously.
func joinExpressionsAsRule(exprs []Expression, sep string) string {
	var sb strings.Builder
	for i, expr := range exprs {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(parenthesizeAsRule(expr))
	}
	return sb.String()
}

func parenthesizeAsRule(expr Expression) string {
	switch expr.(type) {
	case *Choice, *Sequence, *Action:
		return "(" + expr.String() + ")"
	default:
		return expr.String()
	}
}

func (e *Choice) String() string {
	return joinExpressionsAsRule(e.Alternatives, " / ")
}

func (e *Sequence) String() string {
	return joinExpressionsAsRule(e.Elements, " ")
}

func (e *Labeled) String() string {
	return e.Label + ":" + parenthesizeAsRule(e.Expr)
}

func (e *SimpleAnd) String() string {
	return "&" + parenthesizeAsRule(e.Expr)
}

func (e *SimpleNot) String() string {
	return "!" + parenthesizeAsRule(e.Expr)
}

func (e *SemanticAnd) String() string {
	return "&{" + e.Code + "}"
}

func (e *SemanticNot) String() string {
	return "!{" + e.Code + "}"
}

func (e *Optional) String() string {
	return parenthesizeAsRule(e.Expr) + "?"
}

func (e *ZeroOrMore) String() string {
	return parenthesizeAsRule(e.Expr) + "*"
}

func (e *OneOrMore) String() string {
	return parenthesizeAsRule(e.Expr) + "+"
}

func (e *Action) String() string {
	return parenthesizeAsRule(e.Expr) + " {" + e.Code + "}"
}

func (e *RuleRef) String() string {
	return e.Name
}

func (e *Literal) String() string {
	return quoteForError(e.Value)
}

func (e *AnyChar) String() string {
	return "."
}

func (e *CharClass) String() string {
	return e.RawText
}
