package pegc

// analyze validates an AGT and applies the proxy-rule rewrite, in the fixed
// order: reference check, left-recursion check, proxy elimination. The
// grammar is mutated in place.
func analyze(g *Grammar) error {
	if err := checkRuleReferences(g); err != nil {
		return err
	}
	if err := checkLeftRecursion(g); err != nil {
		return err
	}
	removeProxyRules(g)
	return nil
}

// checkRuleReferences ensures every rule reference and the start rule name
// an existing rule.
func checkRuleReferences(g *Grammar) error {
	var err error
	walkGrammar(g, func(expr Expression) {
		if err != nil {
			return
		}
		if ref, ok := expr.(*RuleRef); ok {
			if _, exists := g.Rules[ref.Name]; !exists {
				err = newGrammarErrorf("Referenced rule %q does not exist.", ref.Name)
			}
		}
	})
	if err != nil {
		return err
	}

	if _, exists := g.Rules[g.StartRule]; !exists {
		return newGrammarErrorf("Referenced rule %q does not exist.", g.StartRule)
	}
	return nil
}

// checkLeftRecursion rejects rules that would recurse without consuming
// input. Only sub-expressions matchable at the current position are
// traversed; in particular only the first element of a sequence is
// followed, so indirect left recursion through a nullable first element
// goes undetected, mirroring the original tool.
func checkLeftRecursion(g *Grammar) error {
	var checkExpr func(expr Expression, appliedRules []string) error

	checkRule := func(rule *Rule, appliedRules []string) error {
		return checkExpr(rule.Expr, append(appliedRules, rule.Name))
	}

	checkExpr = func(expr Expression, appliedRules []string) error {
		switch e := expr.(type) {
		case *Choice:
			for _, alt := range e.Alternatives {
				if err := checkExpr(alt, appliedRules); err != nil {
					return err
				}
			}
			return nil
		case *Sequence:
			if len(e.Elements) == 0 {
				return nil
			}
			return checkExpr(e.Elements[0], appliedRules)
		case *Labeled:
			return checkExpr(e.Expr, appliedRules)
		case *SimpleAnd:
			return checkExpr(e.Expr, appliedRules)
		case *SimpleNot:
			return checkExpr(e.Expr, appliedRules)
		case *Optional:
			return checkExpr(e.Expr, appliedRules)
		case *ZeroOrMore:
			return checkExpr(e.Expr, appliedRules)
		case *OneOrMore:
			return checkExpr(e.Expr, appliedRules)
		case *Action:
			return checkExpr(e.Expr, appliedRules)
		case *RuleRef:
			for _, name := range appliedRules {
				if name == e.Name {
					return newGrammarErrorf("Left recursion detected for rule %q.", e.Name)
				}
			}
			return checkRule(g.Rules[e.Name], appliedRules)
		default:
			return nil
		}
	}

	for _, name := range g.RuleNames {
		if err := checkRule(g.Rules[name], nil); err != nil {
			return err
		}
	}
	return nil
}

// removeProxyRules deletes every rule whose body is a single rule
// reference, redirecting referrers and, when needed, the start rule to the
// referenced rule. Each replacement is applied before the next proxy is
// processed, so chains of proxies collapse to their final target.
func removeProxyRules(g *Grammar) {
	replaceRuleRefs := func(from, to string) {
		walkGrammar(g, func(expr Expression) {
			if ref, ok := expr.(*RuleRef); ok && ref.Name == from {
				ref.Name = to
			}
		})
	}

	names := append([]string(nil), g.RuleNames...)
	for _, name := range names {
		rule, ok := g.Rules[name]
		if !ok {
			continue
		}
		ref, ok := rule.Expr.(*RuleRef)
		if !ok {
			continue
		}

		replaceRuleRefs(rule.Name, ref.Name)
		if g.StartRule == rule.Name {
			g.StartRule = ref.Name
		}
		g.RemoveRule(rule.Name)
	}
}
