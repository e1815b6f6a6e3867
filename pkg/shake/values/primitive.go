package values

// Primitive is the entity of a statically known primitive value:
// string, number, boolean, null or undefined. Primitives have no
// mutable shape, so deoptimization is a no-op on them.
type Primitive struct {
	Value    any
	included bool
}

// NewPrimitive wraps a known primitive value.
func NewPrimitive(v any) *Primitive {
	return &Primitive{Value: v}
}

func (p *Primitive) HasEffectsOnInteractionAtPath(path ObjectPath, in Interaction, ctx Context) bool {
	switch in.Kind {
	case InteractionAccessed:
		// reading "abc".length or (1).toString is effect free
		return false
	case InteractionAssigned:
		// silently ignored in sloppy mode; nothing escapes either way
		return false
	default:
		// calling a primitive, or a method on one, is not modeled
		return true
	}
}

func (p *Primitive) DeoptimizePath(ObjectPath) {}

func (p *Primitive) DeoptimizeThisOnInteractionAtPath(Interaction, ObjectPath, *Tracker) {}

func (p *Primitive) GetLiteralValueAtPath(path ObjectPath, tracker *Tracker, origin DeoptimizableEntity) any {
	if len(path) == 0 {
		return p.Value
	}
	return Unknown
}

func (p *Primitive) GetReturnExpressionWhenCalledAtPath(ObjectPath, Interaction, *Tracker, DeoptimizableEntity) (Expression, bool) {
	return UnknownExpr, false
}

func (p *Primitive) Include(Context) { p.included = true }

func (p *Primitive) Included() bool { return p.included }

func (p *Primitive) IncludeCallArguments(ctx Context, args []Expression) {
	for _, arg := range args {
		arg.Include(ctx)
	}
}
