package shake

import (
	"github.com/dop251/goja/ast"

	"github.com/ericmutta/rollup/pkg/shake/values"
)

// includeStatement retains a statement and transitively everything the
// shipped statement text references. Inclusion is monotone; a statement
// is processed once.
func (m *Module) includeStatement(stmt ast.Statement, ctx values.Context) {
	if stmt == nil || m.includedStmts[stmt] {
		return
	}
	m.includedStmts[stmt] = true
	m.included = true
	m.reachStatement(stmt, ctx)

	switch n := stmt.(type) {
	case *ast.ExpressionStatement:
		m.includeExpression(n.Expression, ctx)
	case *ast.VariableStatement:
		for _, bnd := range n.List {
			m.includeExpression(bnd.Initializer, ctx)
		}
		m.includeDeclaredVariables(stmt, ctx)
	case *ast.LexicalDeclaration:
		for _, bnd := range n.List {
			m.includeExpression(bnd.Initializer, ctx)
		}
		m.includeDeclaredVariables(stmt, ctx)
	case *ast.FunctionDeclaration:
		m.includeDeclaredVariables(stmt, ctx)
		if n.Function != nil {
			m.entity(n.Function).Include(ctx)
		}
	case *ast.ClassDeclaration:
		if n.Class != nil {
			m.includeExpression(n.Class.SuperClass, ctx)
		}
		m.includeDeclaredVariables(stmt, ctx)
	case *ast.BlockStatement:
		for _, inner := range n.List {
			m.includeStatement(inner, ctx)
		}
	case *ast.IfStatement:
		m.includeExpression(n.Test, ctx)
		m.includeStatement(n.Consequent, ctx)
		m.includeStatement(n.Alternate, ctx)
	case *ast.ReturnStatement:
		m.includeExpression(n.Argument, ctx)
	case *ast.WhileStatement:
		m.includeExpression(n.Test, ctx)
		m.includeStatement(n.Body, ctx)
	case *ast.DoWhileStatement:
		m.includeExpression(n.Test, ctx)
		m.includeStatement(n.Body, ctx)
	case *ast.ThrowStatement:
		m.includeExpression(n.Argument, ctx)
	case *ast.LabelledStatement:
		m.includeStatement(n.Statement, ctx)
	}
}

func (m *Module) includeDeclaredVariables(stmt ast.Statement, ctx values.Context) {
	for _, v := range m.stmtVars[stmt] {
		v.Include(ctx)
	}
}

// includeExpression retains every binding the expression text
// references and propagates call-side inclusion decisions.
func (m *Module) includeExpression(e ast.Expression, ctx values.Context) {
	switch n := e.(type) {
	case nil:
	case *ast.StringLiteral, *ast.NumberLiteral, *ast.BooleanLiteral,
		*ast.NullLiteral, *ast.RegExpLiteral, *ast.ThisExpression:
	case *ast.Identifier:
		if v := m.bindings[n]; v != nil {
			v.Include(ctx)
		}
	case *ast.DotExpression:
		m.includeExpression(n.Left, ctx)
	case *ast.BracketExpression:
		m.includeExpression(n.Left, ctx)
		m.includeExpression(n.Member, ctx)
	case *ast.CallExpression:
		m.includeExpression(n.Callee, ctx)
		for _, arg := range n.ArgumentList {
			m.includeExpression(arg, ctx)
		}
		args := m.argEntities(n.ArgumentList)
		if c, ok := m.resolveChain(n.Callee); ok {
			c.base.IncludeCallArguments(ctx, args)
			if len(c.path) > 0 {
				// method call: the receiver escapes as this
				in := values.Interaction{Kind: values.InteractionCalledThis, ThisArg: c.base, Args: args}
				c.base.DeoptimizeThisOnInteractionAtPath(in, c.path, ctx.PathTracker())
			}
		} else {
			for _, arg := range args {
				arg.Include(ctx)
			}
		}
	case *ast.NewExpression:
		m.includeExpression(n.Callee, ctx)
		for _, arg := range n.ArgumentList {
			m.includeExpression(arg, ctx)
		}
		for _, arg := range m.argEntities(n.ArgumentList) {
			arg.Include(ctx)
		}
	case *ast.AssignExpression:
		m.includeExpression(n.Left, ctx)
		m.includeExpression(n.Right, ctx)
	case *ast.BinaryExpression:
		m.includeExpression(n.Left, ctx)
		m.includeExpression(n.Right, ctx)
	case *ast.UnaryExpression:
		m.includeExpression(n.Operand, ctx)
	case *ast.ConditionalExpression:
		m.includeExpression(n.Test, ctx)
		m.includeExpression(n.Consequent, ctx)
		m.includeExpression(n.Alternate, ctx)
	case *ast.SequenceExpression:
		for _, expr := range n.Sequence {
			m.includeExpression(expr, ctx)
		}
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			keyed, ok := prop.(*ast.PropertyKeyed)
			if !ok {
				continue
			}
			switch keyed.Key.(type) {
			case *ast.Identifier, *ast.StringLiteral, *ast.NumberLiteral:
			default:
				m.includeExpression(keyed.Key, ctx)
			}
			m.includeExpression(keyed.Value, ctx)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Value {
			m.includeExpression(el, ctx)
		}
	case *ast.TemplateLiteral:
		m.includeExpression(n.Tag, ctx)
		for _, expr := range n.Expressions {
			m.includeExpression(expr, ctx)
		}
	case *ast.FunctionLiteral, *ast.ArrowFunctionLiteral:
		m.entity(e).Include(ctx)
	}
}
