package shake

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"github.com/ericmutta/rollup/pkg/shake/scope"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// accessChain is a flattened member chain: the resolved base value plus
// the property path applied to it. Computed members whose key is not a
// string literal widen to the unknown key and are kept for their own
// evaluation effects.
type accessChain struct {
	base        values.Expression
	baseIdent   *ast.Identifier
	baseExpr    ast.Expression
	path        values.ObjectPath
	memberExprs []ast.Expression
}

// resolveChain flattens identifier-rooted member chains into a single
// query against the base. Non-chain bases (calls, literals, this) fall
// back to their own entity at the empty path.
func (m *Module) resolveChain(e ast.Expression) (accessChain, bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		v := m.bindings[n]
		if v == nil {
			return accessChain{}, false
		}
		return accessChain{base: v, baseIdent: n, path: values.EmptyPath}, true
	case *ast.DotExpression:
		c, ok := m.resolveChain(n.Left)
		if !ok {
			return accessChain{}, false
		}
		c.path = c.path.Extend(n.Identifier.Name.String())
		return c, true
	case *ast.BracketExpression:
		c, ok := m.resolveChain(n.Left)
		if !ok {
			return accessChain{}, false
		}
		if str, isStr := n.Member.(*ast.StringLiteral); isStr {
			c.path = c.path.Extend(str.Value.String())
		} else {
			c.path = c.path.Extend(values.UnknownKey)
			c.memberExprs = append(c.memberExprs, n.Member)
		}
		return c, true
	case nil:
		return accessChain{}, false
	default:
		return accessChain{base: m.entity(e), baseExpr: e, path: values.EmptyPath}, true
	}
}

func joinPath(a, b values.ObjectPath) values.ObjectPath {
	if len(b) == 0 {
		return a
	}
	joined := make(values.ObjectPath, 0, len(a)+len(b))
	joined = append(joined, a...)
	return append(joined, b...)
}

// chainPrefixEffects covers everything a member chain evaluates before
// the final interaction happens: the base expression when it is itself
// a value-producing node, every computed member key, and the TDZ
// verdict of an identifier base.
func (m *Module) chainPrefixEffects(c accessChain, ctx values.Context) bool {
	if c.baseIdent != nil && m.isPossibleTDZ(c.baseIdent) {
		return true
	}
	if c.baseExpr != nil && m.expressionHasEffects(c.baseExpr, ctx) {
		return true
	}
	for _, me := range c.memberExprs {
		if m.expressionHasEffects(me, ctx) {
			return true
		}
	}
	return false
}

// statementHasEffects answers whether evaluating the statement is
// externally observable. Declaration statements only have the effects
// of their initializers; the binding itself is invisible.
func (m *Module) statementHasEffects(stmt ast.Statement, ctx values.Context) bool {
	switch n := stmt.(type) {
	case nil, *ast.EmptyStatement:
		return false
	case *ast.ExpressionStatement:
		return m.expressionHasEffects(n.Expression, ctx)
	case *ast.VariableStatement:
		for _, bnd := range n.List {
			if bnd.Initializer != nil && m.expressionHasEffects(bnd.Initializer, ctx) {
				return true
			}
		}
		return false
	case *ast.LexicalDeclaration:
		for _, bnd := range n.List {
			if bnd.Initializer != nil && m.expressionHasEffects(bnd.Initializer, ctx) {
				return true
			}
		}
		return false
	case *ast.FunctionDeclaration:
		return false
	case *ast.ClassDeclaration:
		if n.Class != nil && n.Class.SuperClass != nil {
			return m.expressionHasEffects(n.Class.SuperClass, ctx)
		}
		return false
	case *ast.BlockStatement:
		for _, inner := range n.List {
			if m.statementHasEffects(inner, ctx) {
				return true
			}
		}
		return false
	case *ast.IfStatement:
		if m.expressionHasEffects(n.Test, ctx) {
			return true
		}
		tv := m.entity(n.Test).GetLiteralValueAtPath(values.EmptyPath, ctx.PathTracker(), nil)
		if truthy, known := truthiness(tv); known {
			if truthy {
				return m.statementHasEffects(n.Consequent, ctx)
			}
			return n.Alternate != nil && m.statementHasEffects(n.Alternate, ctx)
		}
		if m.statementHasEffects(n.Consequent, ctx) {
			return true
		}
		return n.Alternate != nil && m.statementHasEffects(n.Alternate, ctx)
	case *ast.ReturnStatement:
		return n.Argument != nil && m.expressionHasEffects(n.Argument, ctx)
	case *ast.ThrowStatement:
		return true
	case *ast.WhileStatement, *ast.DoWhileStatement:
		// loop bounds are not analyzed
		return true
	case *ast.LabelledStatement:
		return m.statementHasEffects(n.Statement, ctx)
	}
	return true
}

// expressionHasEffects answers whether evaluating the expression for
// its value is externally observable.
func (m *Module) expressionHasEffects(e ast.Expression, ctx values.Context) bool {
	switch n := e.(type) {
	case nil:
		return false
	case *ast.StringLiteral, *ast.NumberLiteral, *ast.BooleanLiteral,
		*ast.NullLiteral, *ast.RegExpLiteral, *ast.ThisExpression,
		*ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		return false
	case *ast.Identifier:
		if m.isPossibleTDZ(n) {
			return true
		}
		v := m.bindings[n]
		if v == nil {
			return true
		}
		return v.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Access, ctx)
	case *ast.DotExpression, *ast.BracketExpression:
		c, ok := m.resolveChain(e)
		if !ok {
			return true
		}
		if m.chainPrefixEffects(c, ctx) {
			return true
		}
		return c.base.HasEffectsOnInteractionAtPath(c.path, values.Access, ctx)
	case *ast.CallExpression:
		return m.callEffects(n.Callee, n.ArgumentList, ctx)
	case *ast.NewExpression:
		// constructor calls allocate and run arbitrary code
		for _, arg := range n.ArgumentList {
			if m.expressionHasEffects(arg, ctx) {
				return true
			}
		}
		c, ok := m.resolveChain(n.Callee)
		if !ok {
			return true
		}
		if m.chainPrefixEffects(c, ctx) {
			return true
		}
		return c.base.HasEffectsOnInteractionAtPath(c.path, values.Call(nil, m.argEntities(n.ArgumentList)...), ctx)
	case *ast.AssignExpression:
		return m.assignEffects(n, ctx)
	case *ast.BinaryExpression:
		return m.expressionHasEffects(n.Left, ctx) || m.expressionHasEffects(n.Right, ctx)
	case *ast.UnaryExpression:
		switch n.Operator {
		case token.TYPEOF:
			// typeof never throws, even on unresolved names
			if ident, isIdent := n.Operand.(*ast.Identifier); isIdent {
				if _, isGlobal := m.bindings[ident].(*scope.GlobalVariable); isGlobal || m.bindings[ident] == nil {
					return false
				}
			}
			return m.expressionHasEffects(n.Operand, ctx)
		case token.DELETE:
			return true
		}
		return m.expressionHasEffects(n.Operand, ctx)
	case *ast.ConditionalExpression:
		if m.expressionHasEffects(n.Test, ctx) {
			return true
		}
		tv := m.entity(n.Test).GetLiteralValueAtPath(values.EmptyPath, ctx.PathTracker(), nil)
		if truthy, known := truthiness(tv); known {
			if truthy {
				return m.expressionHasEffects(n.Consequent, ctx)
			}
			return m.expressionHasEffects(n.Alternate, ctx)
		}
		return m.expressionHasEffects(n.Consequent, ctx) || m.expressionHasEffects(n.Alternate, ctx)
	case *ast.SequenceExpression:
		for _, expr := range n.Sequence {
			if m.expressionHasEffects(expr, ctx) {
				return true
			}
		}
		return false
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			keyed, ok := prop.(*ast.PropertyKeyed)
			if !ok {
				return true
			}
			switch keyed.Key.(type) {
			case *ast.Identifier, *ast.StringLiteral, *ast.NumberLiteral:
			default:
				if m.expressionHasEffects(keyed.Key, ctx) {
					return true
				}
			}
			if m.expressionHasEffects(keyed.Value, ctx) {
				return true
			}
		}
		return false
	case *ast.ArrayLiteral:
		for _, el := range n.Value {
			if m.expressionHasEffects(el, ctx) {
				return true
			}
		}
		return false
	case *ast.TemplateLiteral:
		if n.Tag != nil {
			// tagged templates are calls
			return true
		}
		for _, expr := range n.Expressions {
			if m.expressionHasEffects(expr, ctx) {
				return true
			}
		}
		return false
	}
	return true
}

func (m *Module) callEffects(callee ast.Expression, args []ast.Expression, ctx values.Context) bool {
	for _, arg := range args {
		if m.expressionHasEffects(arg, ctx) {
			return true
		}
	}
	switch callee.(type) {
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		// immediately invoked literal
		return m.entity(callee).HasEffectsOnInteractionAtPath(
			values.EmptyPath, values.Call(nil, m.argEntities(args)...), ctx)
	}
	c, ok := m.resolveChain(callee)
	if !ok {
		return true
	}
	if m.chainPrefixEffects(c, ctx) {
		return true
	}
	return c.base.HasEffectsOnInteractionAtPath(c.path, values.Call(nil, m.argEntities(args)...), ctx)
}

func (m *Module) assignEffects(n *ast.AssignExpression, ctx values.Context) bool {
	if m.expressionHasEffects(n.Right, ctx) {
		return true
	}
	switch left := n.Left.(type) {
	case *ast.Identifier:
		if m.isPossibleTDZ(left) {
			return true
		}
		v := m.bindings[left]
		if v == nil {
			return true
		}
		// writing a binding some included code reads is itself observable
		if v.Included() {
			return true
		}
		return v.HasEffectsOnInteractionAtPath(values.EmptyPath, values.Assign(m.entity(n.Right)), ctx)
	case *ast.DotExpression, *ast.BracketExpression:
		c, ok := m.resolveChain(left)
		if !ok {
			return true
		}
		if m.chainPrefixEffects(c, ctx) {
			return true
		}
		if c.baseIdent != nil {
			if v := m.bindings[c.baseIdent]; v != nil && v.Included() {
				return true
			}
		}
		return c.base.HasEffectsOnInteractionAtPath(c.path, values.Assign(m.entity(n.Right)), ctx)
	}
	return true
}

// deoptimizeAssignTarget widens the value reachable through a member
// assignment target. Called by the binder once per assignment site.
func (m *Module) deoptimizeAssignTarget(left ast.Expression) {
	c, ok := m.resolveChain(left)
	if !ok {
		return
	}
	c.base.DeoptimizePath(c.path)
}

// truthiness maps a literal query result to a JS boolean. known is
// false for Unknown and for value shapes the analysis does not model.
func truthiness(v any) (truthy, known bool) {
	if values.IsUnknown(v) {
		return false, false
	}
	switch val := v.(type) {
	case nil:
		return false, true
	case bool:
		return val, true
	case string:
		return val != "", true
	case float64:
		return val != 0 && val == val, true
	case int64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	if v == values.Undefined {
		return false, true
	}
	return false, false
}
