package shake

import (
	"fmt"

	"github.com/dop251/goja/ast"

	"github.com/ericmutta/rollup/pkg/shake/scope"
	"github.com/ericmutta/rollup/pkg/shake/values"
)

// entity returns the expression entity for a value-producing node,
// creating and caching it on first use. Node kinds without a dedicated
// entity map to the conservative default.
func (m *Module) entity(e ast.Expression) values.Expression {
	if e == nil {
		return values.UnknownExpr
	}
	if ent, ok := m.entities[e]; ok {
		return ent
	}
	var ent values.Expression
	switch n := e.(type) {
	case *ast.StringLiteral:
		ent = values.NewPrimitive(n.Value.String())
	case *ast.NumberLiteral:
		ent = values.NewPrimitive(n.Value)
	case *ast.BooleanLiteral:
		ent = values.NewPrimitive(n.Value)
	case *ast.NullLiteral:
		ent = values.NewPrimitive(nil)
	case *ast.Identifier:
		ent = &identifierEntity{module: m, node: n}
	case *ast.DotExpression, *ast.BracketExpression:
		ent = &memberEntity{module: m, node: e}
	case *ast.CallExpression:
		ent = &callEntity{module: m, node: n}
	case *ast.ObjectLiteral:
		ent = m.newObjectEntity(n)
	case *ast.FunctionLiteral:
		ent = &functionEntity{module: m, fn: n}
	case *ast.ArrowFunctionLiteral:
		ent = &functionEntity{module: m, arrow: n}
	case *ast.ConditionalExpression:
		ent = &conditionalEntity{module: m, node: n}
	case *ast.AssignExpression:
		// the value of an assignment is its right-hand side
		ent = m.entity(n.Right)
	case *ast.SequenceExpression:
		if len(n.Sequence) > 0 {
			ent = m.entity(n.Sequence[len(n.Sequence)-1])
		} else {
			ent = values.UnknownExpr
		}
	default:
		ent = values.UnknownExpr
	}
	m.entities[e] = ent
	return ent
}

func (m *Module) argEntities(args []ast.Expression) []values.Expression {
	out := make([]values.Expression, len(args))
	for i, arg := range args {
		out[i] = m.entity(arg)
	}
	return out
}

// identifierEntity is the node-side view of an identifier reference.
// All value queries delegate to the resolved variable; the TDZ verdict
// is the node's own contribution.
type identifierEntity struct {
	module   *Module
	node     *ast.Identifier
	included bool
}

func (i *identifierEntity) variable() scope.Variable { return i.module.bindings[i.node] }

func (i *identifierEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	if i.module.isPossibleTDZ(i.node) {
		return true
	}
	v := i.variable()
	if v == nil {
		return true
	}
	return v.HasEffectsOnInteractionAtPath(path, in, ctx)
}

func (i *identifierEntity) DeoptimizePath(path values.ObjectPath) {
	if v := i.variable(); v != nil {
		v.DeoptimizePath(path)
	}
}

func (i *identifierEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if v := i.variable(); v != nil {
		v.DeoptimizeThisOnInteractionAtPath(in, path, tracker)
	}
}

func (i *identifierEntity) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if i.module.isPossibleTDZ(i.node) {
		return values.Unknown
	}
	v := i.variable()
	if v == nil {
		return values.Unknown
	}
	return v.GetLiteralValueAtPath(path, tracker, origin)
}

func (i *identifierEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	v := i.variable()
	if v == nil {
		return values.UnknownExpr, false
	}
	return v.GetReturnExpressionWhenCalledAtPath(path, in, tracker, origin)
}

func (i *identifierEntity) Include(ctx values.Context) {
	if i.included {
		return
	}
	i.included = true
	if v := i.variable(); v != nil {
		v.Include(ctx)
	}
}

func (i *identifierEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	if v := i.variable(); v != nil {
		v.IncludeCallArguments(ctx, args)
		return
	}
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// DeoptimizeCache implements values.DeoptimizableEntity: a dependency
// this entity queried lost precision, so another pass is needed.
func (i *identifierEntity) DeoptimizeCache() {
	i.module.graph.RequestTreeshakingPass()
}

// memberEntity is the value of a property access chain. Queries are
// forwarded to the chain's base at the joined path.
type memberEntity struct {
	module   *Module
	node     ast.Expression
	included bool
}

func (me *memberEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	c, ok := me.module.resolveChain(me.node)
	if !ok {
		return true
	}
	return c.base.HasEffectsOnInteractionAtPath(joinPath(c.path, path), in, ctx)
}

func (me *memberEntity) DeoptimizePath(path values.ObjectPath) {
	if c, ok := me.module.resolveChain(me.node); ok {
		c.base.DeoptimizePath(joinPath(c.path, path))
	}
}

func (me *memberEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if c, ok := me.module.resolveChain(me.node); ok {
		c.base.DeoptimizeThisOnInteractionAtPath(in, joinPath(c.path, path), tracker)
	}
}

func (me *memberEntity) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	c, ok := me.module.resolveChain(me.node)
	if !ok {
		return values.Unknown
	}
	return c.base.GetLiteralValueAtPath(joinPath(c.path, path), tracker, origin)
}

func (me *memberEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	c, ok := me.module.resolveChain(me.node)
	if !ok {
		return values.UnknownExpr, false
	}
	return c.base.GetReturnExpressionWhenCalledAtPath(joinPath(c.path, path), in, tracker, origin)
}

func (me *memberEntity) Include(ctx values.Context) {
	if me.included {
		return
	}
	me.included = true
	me.module.includeExpression(me.node, ctx)
}

func (me *memberEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

func (me *memberEntity) DeoptimizeCache() {
	me.module.graph.RequestTreeshakingPass()
}

// callEntity is the value produced by a call; queries resolve the
// callee's return expression and continue there.
type callEntity struct {
	module   *Module
	node     *ast.CallExpression
	included bool
}

func (ce *callEntity) returnExpression(tracker *values.Tracker, origin values.DeoptimizableEntity) values.Expression {
	c, ok := ce.module.resolveChain(ce.node.Callee)
	if !ok {
		return values.UnknownExpr
	}
	in := values.Call(nil, ce.module.argEntities(ce.node.ArgumentList)...)
	ret, _ := c.base.GetReturnExpressionWhenCalledAtPath(c.path, in, tracker, origin)
	return ret
}

func (ce *callEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	tracker := ctx.PathTracker()
	if !tracker.Enter(ce, path, in.Kind) {
		return true
	}
	defer tracker.Leave(ce, path, in.Kind)
	return ce.returnExpression(tracker, nil).HasEffectsOnInteractionAtPath(path, in, ctx)
}

func (ce *callEntity) DeoptimizePath(path values.ObjectPath) {
	tracker := ce.module.graph.PathTracker()
	if !tracker.Enter(ce, path, values.InteractionAssigned) {
		return
	}
	defer tracker.Leave(ce, path, values.InteractionAssigned)
	ce.returnExpression(tracker, nil).DeoptimizePath(path)
}

func (ce *callEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if !tracker.Enter(ce, path, values.InteractionCalledThis) {
		return
	}
	defer tracker.Leave(ce, path, values.InteractionCalledThis)
	ce.returnExpression(tracker, nil).DeoptimizeThisOnInteractionAtPath(in, path, tracker)
}

func (ce *callEntity) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if !tracker.Enter(ce, path, values.InteractionAccessed) {
		return values.Unknown
	}
	defer tracker.Leave(ce, path, values.InteractionAccessed)
	return ce.returnExpression(tracker, origin).GetLiteralValueAtPath(path, tracker, origin)
}

func (ce *callEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if !tracker.Enter(ce, path, values.InteractionCalled) {
		return values.UnknownExpr, false
	}
	defer tracker.Leave(ce, path, values.InteractionCalled)
	return ce.returnExpression(tracker, origin).GetReturnExpressionWhenCalledAtPath(path, in, tracker, origin)
}

func (ce *callEntity) Include(ctx values.Context) {
	if ce.included {
		return
	}
	ce.included = true
	ce.module.includeExpression(ce.node, ctx)
}

func (ce *callEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

func (ce *callEntity) DeoptimizeCache() {
	ce.module.graph.RequestTreeshakingPass()
}

// objectEntity tracks the statically known property layout of an
// object literal, per-path deoptimization included.
type objectEntity struct {
	module       *Module
	node         *ast.ObjectLiteral
	props        map[string]values.Expression
	unknownProps bool
	allUnknown   bool
	deopts       values.PathDeopts
	included     bool
}

func (m *Module) newObjectEntity(n *ast.ObjectLiteral) *objectEntity {
	o := &objectEntity{module: m, node: n, props: make(map[string]values.Expression)}
	for _, prop := range n.Value {
		keyed, ok := prop.(*ast.PropertyKeyed)
		if !ok {
			o.unknownProps = true
			continue
		}
		name, ok := staticPropertyName(keyed.Key)
		if !ok {
			o.unknownProps = true
			continue
		}
		o.props[name] = m.entity(keyed.Value)
	}
	return o
}

func staticPropertyName(key ast.Expression) (string, bool) {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Name.String(), true
	case *ast.StringLiteral:
		return k.Value.String(), true
	case *ast.NumberLiteral:
		return fmt.Sprint(k.Value), true
	}
	return "", false
}

func (o *objectEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	if len(path) == 0 {
		switch in.Kind {
		case values.InteractionAccessed, values.InteractionAssigned:
			return false
		default:
			// calling a plain object throws
			return true
		}
	}
	if o.allUnknown || o.deopts.Covers(path) {
		return true
	}
	key := string(path[0])
	if key == values.UnknownKey {
		return true
	}
	prop, ok := o.props[key]
	if !ok {
		if o.unknownProps {
			return true
		}
		switch in.Kind {
		case values.InteractionAccessed, values.InteractionAssigned:
			return len(path) > 1
		default:
			return true
		}
	}
	return prop.HasEffectsOnInteractionAtPath(path[1:], in, ctx)
}

func (o *objectEntity) DeoptimizePath(path values.ObjectPath) {
	if len(path) == 0 {
		if o.allUnknown {
			return
		}
		o.allUnknown = true
		o.deopts.Add(values.EmptyPath)
		for _, prop := range o.props {
			prop.DeoptimizePath(values.EmptyPath)
		}
		return
	}
	if o.deopts.Covers(path) {
		return
	}
	o.deopts.Add(path)
	key := string(path[0])
	if key == values.UnknownKey {
		for _, prop := range o.props {
			prop.DeoptimizePath(path[1:])
		}
		return
	}
	if prop, ok := o.props[key]; ok {
		prop.DeoptimizePath(path[1:])
	}
}

func (o *objectEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	if in.ThisArg != nil {
		in.ThisArg.DeoptimizePath(values.EmptyPath)
	}
}

func (o *objectEntity) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if len(path) == 0 {
		return values.Unknown
	}
	if o.allUnknown || o.deopts.Covers(path) {
		return values.Unknown
	}
	if origin != nil {
		o.deopts.Subscribe(origin)
	}
	key := string(path[0])
	if key == values.UnknownKey {
		return values.Unknown
	}
	prop, ok := o.props[key]
	if !ok {
		if o.unknownProps {
			return values.Unknown
		}
		if len(path) == 1 {
			return values.Undefined
		}
		return values.Unknown
	}
	return prop.GetLiteralValueAtPath(path[1:], tracker, origin)
}

func (o *objectEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if len(path) == 0 {
		return values.UnknownExpr, false
	}
	if o.allUnknown || o.deopts.Covers(path) {
		return values.UnknownExpr, false
	}
	key := string(path[0])
	if prop, ok := o.props[key]; ok {
		return prop.GetReturnExpressionWhenCalledAtPath(path[1:], in, tracker, origin)
	}
	return values.UnknownExpr, false
}

func (o *objectEntity) Include(ctx values.Context) {
	if o.included {
		return
	}
	o.included = true
	o.module.includeExpression(o.node, ctx)
}

func (o *objectEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// conditionalEntity narrows to one branch when the test value is
// statically known, and answers for both branches otherwise.
type conditionalEntity struct {
	module   *Module
	node     *ast.ConditionalExpression
	included bool
}

func (c *conditionalEntity) branch(tracker *values.Tracker) (values.Expression, bool) {
	tv := c.module.entity(c.node.Test).GetLiteralValueAtPath(values.EmptyPath, tracker, nil)
	truthy, known := truthiness(tv)
	if !known {
		return nil, false
	}
	if truthy {
		return c.module.entity(c.node.Consequent), true
	}
	return c.module.entity(c.node.Alternate), true
}

func (c *conditionalEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	if br, ok := c.branch(ctx.PathTracker()); ok {
		return br.HasEffectsOnInteractionAtPath(path, in, ctx)
	}
	return c.module.entity(c.node.Consequent).HasEffectsOnInteractionAtPath(path, in, ctx) ||
		c.module.entity(c.node.Alternate).HasEffectsOnInteractionAtPath(path, in, ctx)
}

func (c *conditionalEntity) DeoptimizePath(path values.ObjectPath) {
	c.module.entity(c.node.Consequent).DeoptimizePath(path)
	c.module.entity(c.node.Alternate).DeoptimizePath(path)
}

func (c *conditionalEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
	c.module.entity(c.node.Consequent).DeoptimizeThisOnInteractionAtPath(in, path, tracker)
	c.module.entity(c.node.Alternate).DeoptimizeThisOnInteractionAtPath(in, path, tracker)
}

func (c *conditionalEntity) GetLiteralValueAtPath(path values.ObjectPath, tracker *values.Tracker, origin values.DeoptimizableEntity) any {
	if br, ok := c.branch(tracker); ok {
		return br.GetLiteralValueAtPath(path, tracker, origin)
	}
	return values.Unknown
}

func (c *conditionalEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if br, ok := c.branch(tracker); ok {
		return br.GetReturnExpressionWhenCalledAtPath(path, in, tracker, origin)
	}
	return values.UnknownExpr, false
}

func (c *conditionalEntity) Include(ctx values.Context) {
	if c.included {
		return
	}
	c.included = true
	c.module.includeExpression(c.node, ctx)
}

func (c *conditionalEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}

// functionEntity is the value of a function or arrow literal. Call
// effects are the body's effects; recursion re-entry degrades to the
// conservative answer via the shared tracker.
type functionEntity struct {
	module   *Module
	fn       *ast.FunctionLiteral
	arrow    *ast.ArrowFunctionLiteral
	included bool
}

// body splits the function into a statement body or a concise
// expression body. ok is false for shapes the analysis cannot see.
func (f *functionEntity) body() (stmts []ast.Statement, expr ast.Expression, ok bool) {
	var raw ast.Node
	if f.fn != nil {
		raw = f.fn.Body
	} else {
		raw = f.arrow.Body
	}
	switch b := raw.(type) {
	case *ast.BlockStatement:
		return b.List, nil, true
	case *ast.ExpressionBody:
		return nil, b.Expression, true
	}
	return nil, nil, false
}

func (f *functionEntity) bodyHasEffects(ctx values.Context) bool {
	stmts, expr, ok := f.body()
	if !ok {
		return true
	}
	if expr != nil {
		return f.module.expressionHasEffects(expr, ctx)
	}
	for _, stmt := range stmts {
		// declarations are reached in execution order before any reader
		// is examined, as in the top-level walk; a straight-line read of
		// a body-local binding is then no TDZ risk
		f.module.reachStatement(stmt, ctx)
		if f.module.statementHasEffects(stmt, ctx) {
			return true
		}
	}
	return false
}

func (f *functionEntity) HasEffectsOnInteractionAtPath(path values.ObjectPath, in values.Interaction, ctx values.Context) bool {
	switch in.Kind {
	case values.InteractionAccessed:
		return false
	case values.InteractionAssigned:
		return len(path) > 0
	default:
		if len(path) > 0 {
			return true
		}
		tracker := ctx.PathTracker()
		if !tracker.Enter(f, path, values.InteractionCalled) {
			return true
		}
		defer tracker.Leave(f, path, values.InteractionCalled)
		return f.bodyHasEffects(ctx)
	}
}

func (f *functionEntity) DeoptimizePath(values.ObjectPath) {}

func (f *functionEntity) DeoptimizeThisOnInteractionAtPath(in values.Interaction, path values.ObjectPath, tracker *values.Tracker) {
}

func (f *functionEntity) GetLiteralValueAtPath(values.ObjectPath, *values.Tracker, values.DeoptimizableEntity) any {
	return values.Unknown
}

func (f *functionEntity) GetReturnExpressionWhenCalledAtPath(path values.ObjectPath, in values.Interaction, tracker *values.Tracker, origin values.DeoptimizableEntity) (values.Expression, bool) {
	if len(path) > 0 {
		return values.UnknownExpr, false
	}
	if !tracker.Enter(f, path, values.InteractionCalled) {
		return values.UnknownExpr, false
	}
	defer tracker.Leave(f, path, values.InteractionCalled)

	stmts, expr, ok := f.body()
	if !ok {
		return values.UnknownExpr, false
	}
	pure := !f.bodyHasEffects(f.module.graph)
	if expr != nil {
		return f.module.entity(expr), pure
	}
	var returns []*ast.ReturnStatement
	for _, stmt := range stmts {
		if ret, isRet := stmt.(*ast.ReturnStatement); isRet {
			returns = append(returns, ret)
		}
	}
	switch len(returns) {
	case 0:
		return values.NewPrimitive(values.Undefined), pure
	case 1:
		if returns[0].Argument == nil {
			return values.NewPrimitive(values.Undefined), pure
		}
		return f.module.entity(returns[0].Argument), pure
	}
	return values.UnknownExpr, pure
}

func (f *functionEntity) Include(ctx values.Context) {
	if f.included {
		return
	}
	f.included = true
	stmts, expr, ok := f.body()
	if !ok {
		return
	}
	if expr != nil {
		f.module.includeExpression(expr, ctx)
		return
	}
	// the whole body text ships with the function, so every binding it
	// references must be retained
	for _, stmt := range stmts {
		f.module.includeStatement(stmt, ctx)
	}
}

func (f *functionEntity) IncludeCallArguments(ctx values.Context, args []values.Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}
