package pegc

// walkGrammar visits every expression of every rule, rules in declaration
// order, each rule body in depth-first pre-order. Visited nodes may be
// mutated in place; the walk does not follow rule references.
func walkGrammar(g *Grammar, visit func(Expression)) {
	for _, name := range g.RuleNames {
		walkExpr(g.Rules[name].Expr, visit)
	}
}

func walkExpr(expr Expression, visit func(Expression)) {
	visit(expr)

	switch e := expr.(type) {
	case *Choice:
		for _, alt := range e.Alternatives {
			walkExpr(alt, visit)
		}
	case *Sequence:
		for _, element := range e.Elements {
			walkExpr(element, visit)
		}
	case *Labeled:
		walkExpr(e.Expr, visit)
	case *SimpleAnd:
		walkExpr(e.Expr, visit)
	case *SimpleNot:
		walkExpr(e.Expr, visit)
	case *Optional:
		walkExpr(e.Expr, visit)
	case *ZeroOrMore:
		walkExpr(e.Expr, visit)
	case *OneOrMore:
		walkExpr(e.Expr, visit)
	case *Action:
		walkExpr(e.Expr, visit)
	case *SemanticAnd, *SemanticNot, *RuleRef, *Literal, *AnyChar, *CharClass:
		// leaves
	}
}
