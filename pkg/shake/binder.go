package shake

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"github.com/ericmutta/rollup/pkg/shake/scope"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// binder runs once per module during graph construction. It builds the
// scope tree, applies hoisting, resolves every genuine identifier
// reference to exactly one variable and records the static facts TDZ
// checks need.
type binder struct {
	m       *Module
	topStmt ast.Statement
	err     error
}

func (m *Module) bind() error {
	b := &binder{m: m}

	for _, imp := range m.record.Imports {
		iv := scope.NewImportVariable(imp.LocalName, m.id, imp.Source, imp.ImportedName, imp.External)
		m.topScope.Set(imp.LocalName, iv)
		m.importVars[imp.LocalName] = iv
	}

	// function-scoped declarations first, implementing hoisting
	for _, stmt := range m.program.Body {
		b.topStmt = stmt
		b.hoist(stmt, m.topScope)
	}
	b.walkTop(m.program.Body, m.topScope)
	return b.err
}

func (b *binder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// hoist collects var and function declarations into the given
// function-or-module scope. It descends blocks but stops at function
// boundaries; nested function bodies hoist when the walk enters them.
func (b *binder) hoist(node ast.Node, fscope *scope.Scope) {
	switch n := node.(type) {
	case *ast.VariableStatement:
		for _, bnd := range n.List {
			b.declareBinding(fscope, scope.KindVar, bnd, n)
		}
	case *ast.FunctionDeclaration:
		b.declareFunction(fscope, n)
	case *ast.BlockStatement:
		for _, stmt := range n.List {
			b.hoist(stmt, fscope)
		}
	case *ast.IfStatement:
		b.hoist(n.Consequent, fscope)
		b.hoist(n.Alternate, fscope)
	case *ast.WhileStatement:
		b.hoist(n.Body, fscope)
	case *ast.DoWhileStatement:
		b.hoist(n.Body, fscope)
	case *ast.LabelledStatement:
		b.hoist(n.Statement, fscope)
	case nil:
	}
}

// walkTop binds the module body. Lexical declarations are registered
// before any statement is walked so that early references inside the
// same scope resolve to the binding, not to an ambient global.
func (b *binder) walkTop(list []ast.Statement, sc *scope.Scope) {
	for _, stmt := range list {
		b.topStmt = stmt
		b.prescanLexical(stmt, sc)
	}
	for _, stmt := range list {
		b.topStmt = stmt
		b.walkStmt(stmt, sc)
	}
}

// walkStatements is walkTop for nested statement lists: the enclosing
// top-level statement stays the retention unit.
func (b *binder) walkStatements(list []ast.Statement, sc *scope.Scope) {
	for _, stmt := range list {
		b.prescanLexical(stmt, sc)
	}
	for _, stmt := range list {
		b.walkStmt(stmt, sc)
	}
}

func (b *binder) prescanLexical(stmt ast.Statement, sc *scope.Scope) {
	switch n := stmt.(type) {
	case *ast.LexicalDeclaration:
		kind, ok := lexicalKind(n.Token)
		if !ok {
			b.fail(&InternalError{Reason: fmt.Sprintf("unrecognized declaration kind %q in %s", n.Token.String(), b.m.id)})
			return
		}
		for _, bnd := range n.List {
			b.declareBinding(sc, kind, bnd, n)
		}
	case *ast.ClassDeclaration:
		b.declareClass(sc, n)
	}
}

func lexicalKind(tok token.Token) (scope.VarKind, bool) {
	switch tok {
	case token.LET:
		return scope.KindLet, true
	case token.CONST:
		return scope.KindConst, true
	}
	return 0, false
}

func (b *binder) declareBinding(sc *scope.Scope, kind scope.VarKind, bnd *ast.Binding, declStmt ast.Statement) {
	target, ok := bnd.Target.(*ast.Identifier)
	if !ok {
		// references inside the initializer still bind during the walk;
		// the declared names fall back to ambient globals
		b.m.markConservative("destructuring declaration target")
		return
	}
	name := target.Name.String()
	var init values.Expression
	if bnd.Initializer != nil {
		init = b.m.entity(bnd.Initializer)
	}
	b.declare(sc, kind, name, int(target.Idx0()), init, declStmt)
}

func (b *binder) declareFunction(fscope *scope.Scope, n *ast.FunctionDeclaration) {
	fn := n.Function
	if fn == nil || fn.Name == nil {
		b.m.markConservative("function declaration without a name")
		return
	}
	b.declare(fscope, scope.KindFunction, fn.Name.Name.String(), int(fn.Name.Idx0()), b.m.entity(fn), n)
}

func (b *binder) declareClass(sc *scope.Scope, n *ast.ClassDeclaration) {
	cls := n.Class
	if cls == nil || cls.Name == nil {
		b.m.markConservative("class declaration without a name")
		return
	}
	b.declare(sc, scope.KindClass, cls.Name.Name.String(), int(cls.Name.Idx0()), values.UnknownExpr, n)
}

func (b *binder) declare(sc *scope.Scope, kind scope.VarKind, name string, pos int, init values.Expression, declStmt ast.Statement) {
	if existing := sc.Declared(name); existing != nil {
		lv, ok := existing.(*scope.LocalVariable)
		if !ok {
			// a declaration shadowing an import binding in the same
			// scope can only come from broken graph construction
			b.fail(&InternalError{Reason: fmt.Sprintf("declaration of %q collides with import binding in %s", name, b.m.id)})
			return
		}
		lv.AddDeclaration(pos, sc.FunctionScope(), init)
		b.recordDecl(lv, declStmt)
		return
	}
	v := scope.NewLocalVariable(name, kind, b.m.id)
	v.AddDeclaration(pos, sc.FunctionScope(), init)
	v.OnInclude(func(ctx values.Context) {
		for _, stmt := range b.m.varStmts[v] {
			b.m.includeStatement(stmt, ctx)
		}
	})
	sc.Set(name, v)
	b.recordDecl(v, declStmt)
}

func (b *binder) recordDecl(v scope.Variable, declStmt ast.Statement) {
	if declStmt != nil {
		b.m.stmtVars[declStmt] = append(b.m.stmtVars[declStmt], v)
	}
	if b.topStmt != nil {
		b.m.varStmts[v] = append(b.m.varStmts[v], b.topStmt)
	}
}

func (b *binder) walkStmt(stmt ast.Statement, sc *scope.Scope) {
	switch n := stmt.(type) {
	case nil:
	case *ast.BlockStatement:
		inner := scope.NewScope(sc, scope.BlockScope)
		b.walkStatements(n.List, inner)
	case *ast.VariableStatement:
		for _, bnd := range n.List {
			b.walkExpr(bnd.Initializer, sc)
		}
	case *ast.LexicalDeclaration:
		for _, bnd := range n.List {
			b.walkExpr(bnd.Initializer, sc)
		}
	case *ast.ClassDeclaration:
		if n.Class != nil {
			b.walkExpr(n.Class.SuperClass, sc)
			if len(n.Class.Body) > 0 {
				b.m.markConservative("class body")
			}
		}
	case *ast.FunctionDeclaration:
		b.enterFunction(n.Function, sc)
	case *ast.ExpressionStatement:
		b.walkExpr(n.Expression, sc)
	case *ast.IfStatement:
		b.walkExpr(n.Test, sc)
		b.walkStmt(n.Consequent, sc)
		b.walkStmt(n.Alternate, sc)
	case *ast.ReturnStatement:
		b.walkExpr(n.Argument, sc)
	case *ast.WhileStatement:
		b.walkExpr(n.Test, sc)
		b.walkStmt(n.Body, sc)
	case *ast.DoWhileStatement:
		b.walkExpr(n.Test, sc)
		b.walkStmt(n.Body, sc)
	case *ast.ThrowStatement:
		b.walkExpr(n.Argument, sc)
	case *ast.LabelledStatement:
		b.walkStmt(n.Statement, sc)
	case *ast.EmptyStatement:
	default:
		b.m.markConservative(fmt.Sprintf("unsupported statement %T", stmt))
	}
}

func (b *binder) walkExpr(e ast.Expression, sc *scope.Scope) {
	switch n := e.(type) {
	case nil:
	case *ast.Identifier:
		b.bindRef(n, sc)
	case *ast.StringLiteral, *ast.NumberLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.RegExpLiteral, *ast.ThisExpression:
	case *ast.DotExpression:
		b.walkExpr(n.Left, sc)
	case *ast.BracketExpression:
		b.walkExpr(n.Left, sc)
		b.walkExpr(n.Member, sc)
	case *ast.CallExpression:
		b.walkExpr(n.Callee, sc)
		for _, arg := range n.ArgumentList {
			b.walkExpr(arg, sc)
		}
	case *ast.NewExpression:
		b.walkExpr(n.Callee, sc)
		for _, arg := range n.ArgumentList {
			b.walkExpr(arg, sc)
		}
	case *ast.AssignExpression:
		b.handleAssign(n, sc)
	case *ast.BinaryExpression:
		b.walkExpr(n.Left, sc)
		b.walkExpr(n.Right, sc)
	case *ast.UnaryExpression:
		b.walkExpr(n.Operand, sc)
	case *ast.ConditionalExpression:
		b.walkExpr(n.Test, sc)
		b.walkExpr(n.Consequent, sc)
		b.walkExpr(n.Alternate, sc)
	case *ast.SequenceExpression:
		for _, expr := range n.Sequence {
			b.walkExpr(expr, sc)
		}
	case *ast.ObjectLiteral:
		for _, prop := range n.Value {
			keyed, ok := prop.(*ast.PropertyKeyed)
			if !ok {
				b.m.markConservative(fmt.Sprintf("object property %T", prop))
				continue
			}
			switch keyed.Key.(type) {
			case *ast.Identifier, *ast.StringLiteral, *ast.NumberLiteral:
				// static property name, not a reference
			default:
				b.walkExpr(keyed.Key, sc)
			}
			b.walkExpr(keyed.Value, sc)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Value {
			b.walkExpr(el, sc)
		}
	case *ast.TemplateLiteral:
		b.walkExpr(n.Tag, sc)
		for _, expr := range n.Expressions {
			b.walkExpr(expr, sc)
		}
	case *ast.FunctionLiteral:
		b.enterFunction(n, sc)
	case *ast.ArrowFunctionLiteral:
		b.enterArrow(n, sc)
	default:
		b.m.markConservative(fmt.Sprintf("unsupported expression %T", e))
	}
}

func (b *binder) bindRef(n *ast.Identifier, sc *scope.Scope) {
	v := sc.FindVariable(n.Name.String())
	ref := scope.Reference{Node: n, Pos: int(n.Idx0()), FuncScope: sc.FunctionScope()}
	b.m.bindings[n] = v
	b.m.refs[n] = ref
	v.AddReference(ref)
	if lv, ok := v.(*scope.LocalVariable); ok {
		switch lv.Kind() {
		case scope.KindVar, scope.KindFunction:
			// hoisting with eager evaluation: the value may be observed
			// from code positioned before the declaration
			if pos, hasDecl := lv.FirstDeclPosition(); hasDecl && ref.Pos < pos {
				lv.MarkHoistedUse()
			}
		}
	}
}

func (b *binder) handleAssign(n *ast.AssignExpression, sc *scope.Scope) {
	b.walkExpr(n.Right, sc)
	switch left := n.Left.(type) {
	case *ast.Identifier:
		b.bindRef(left, sc)
		switch v := b.m.bindings[left].(type) {
		case *scope.ImportVariable:
			pos := b.m.position(left.Idx0())
			b.m.graph.ReportIssue(&IllegalReassignmentError{
				Name:     v.Name(),
				ModuleID: b.m.id,
				Line:     pos.Line,
				Column:   pos.Column,
			})
		case *scope.LocalVariable:
			if n.Operator == token.ASSIGN {
				v.AddInitializer(b.m.entity(n.Right))
			} else {
				// compound assignment derives from the previous value
				v.DeoptimizePath(values.EmptyPath)
			}
		}
	case *ast.DotExpression, *ast.BracketExpression:
		b.walkExpr(left, sc)
		b.m.deoptimizeAssignTarget(left)
	default:
		b.walkExpr(n.Left, sc)
		b.m.markConservative("assignment target pattern")
	}
}

func (b *binder) enterFunction(fn *ast.FunctionLiteral, sc *scope.Scope) {
	if fn == nil {
		return
	}
	fs := scope.NewScope(sc, scope.FunctionScope)
	b.declareParams(fn.ParameterList, fs)
	body, ok := ast.Node(fn.Body).(*ast.BlockStatement)
	if !ok {
		b.m.markConservative("function body shape")
		return
	}
	for _, stmt := range body.List {
		b.hoist(stmt, fs)
	}
	b.walkStatements(body.List, fs)
}

func (b *binder) enterArrow(fn *ast.ArrowFunctionLiteral, sc *scope.Scope) {
	fs := scope.NewScope(sc, scope.FunctionScope)
	b.declareParams(fn.ParameterList, fs)
	switch body := ast.Node(fn.Body).(type) {
	case *ast.BlockStatement:
		for _, stmt := range body.List {
			b.hoist(stmt, fs)
		}
		b.walkStatements(body.List, fs)
	case *ast.ExpressionBody:
		b.walkExpr(body.Expression, fs)
	default:
		b.m.markConservative("arrow body shape")
	}
}

func (b *binder) declareParams(params *ast.ParameterList, fs *scope.Scope) {
	if params == nil {
		return
	}
	for _, bnd := range params.List {
		target, ok := bnd.Target.(*ast.Identifier)
		if !ok {
			b.m.markConservative("destructuring parameter")
			continue
		}
		fs.Set(target.Name.String(), scope.NewParameterVariable(target.Name.String()))
		b.walkExpr(bnd.Initializer, fs)
	}
}
