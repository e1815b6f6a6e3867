package values

import (
	"strconv"
	"strings"
)

// InteractionKind tags a request performed against an entity at a path.
type InteractionKind int

const (
	// InteractionAccessed is a plain read through the path.
	InteractionAccessed InteractionKind = iota
	// InteractionAssigned is a write through the path.
	InteractionAssigned
	// InteractionCalled is a call through the path.
	InteractionCalled
	// InteractionCalledThis is a call whose only relevant effect target
	// is the implicit this-binding.
	InteractionCalledThis
)

func (k InteractionKind) String() string {
	switch k {
	case InteractionAccessed:
		return "accessed"
	case InteractionAssigned:
		return "assigned"
	case InteractionCalled:
		return "called"
	case InteractionCalledThis:
		return "called-this"
	}
	return "unknown"
}

type trackedEntry struct {
	entity any
	path   string
	kind   InteractionKind
}

// trackerKey encodes a path with length-prefixed segments so that
// distinct key sequences never collide; a dot-joined rendering would
// conflate ["a.b"] with ["a", "b"].
func trackerKey(p ObjectPath) string {
	var b strings.Builder
	for _, k := range p {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(string(k))
	}
	return b.String()
}

// Tracker guards recursive queries over cyclic entity graphs. Every
// entry point into literal-value, return-expression and this-binding
// queries must pass through it: mutually referencing variables,
// self-referential object literals and recursive functions would
// otherwise recurse forever.
type Tracker struct {
	inFlight map[trackedEntry]struct{}
}

// NewTracker creates an empty recursion tracker.
func NewTracker() *Tracker {
	return &Tracker{inFlight: make(map[trackedEntry]struct{})}
}

// Enter marks the (entity, path, kind) triple as in flight. It returns
// false when the same triple is already being evaluated higher up the
// stack; the caller must then answer with the conservative unknown
// result instead of recursing.
func (t *Tracker) Enter(entity any, path ObjectPath, kind InteractionKind) bool {
	e := trackedEntry{entity: entity, path: trackerKey(path), kind: kind}
	if _, ok := t.inFlight[e]; ok {
		return false
	}
	t.inFlight[e] = struct{}{}
	return true
}

// Leave releases a triple previously claimed with Enter.
func (t *Tracker) Leave(entity any, path ObjectPath, kind InteractionKind) {
	delete(t.inFlight, trackedEntry{entity: entity, path: trackerKey(path), kind: kind})
}
