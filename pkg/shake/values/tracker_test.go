package values

import "testing"

func TestTracker_BlocksReentry(t *testing.T) {
	tr := NewTracker()
	entity := &struct{}{}
	path := ObjectPath{"a"}

	if !tr.Enter(entity, path, InteractionCalled) {
		t.Fatal("fresh Enter returned false")
	}
	if tr.Enter(entity, path, InteractionCalled) {
		t.Error("re-entry of same triple returned true")
	}

	// a different interaction kind on the same entity and path is a
	// different query
	if !tr.Enter(entity, path, InteractionAccessed) {
		t.Error("different kind blocked")
	}
	// same goes for a different path
	if !tr.Enter(entity, ObjectPath{"b"}, InteractionCalled) {
		t.Error("different path blocked")
	}

	tr.Leave(entity, path, InteractionCalled)
	if !tr.Enter(entity, path, InteractionCalled) {
		t.Error("Enter after Leave returned false")
	}
}

func TestTracker_DistinguishesDottedKeyFromNestedPath(t *testing.T) {
	tr := NewTracker()
	entity := new(int)
	if !tr.Enter(entity, ObjectPath{"a.b"}, InteractionCalled) {
		t.Fatal("fresh Enter returned false")
	}
	if !tr.Enter(entity, ObjectPath{"a", "b"}, InteractionCalled) {
		t.Error("two-segment path blocked by a single key containing a dot")
	}
}

func TestTracker_DistinguishesEntities(t *testing.T) {
	tr := NewTracker()
	// zero-size allocations may share one address and would not key the
	// in-flight map apart
	a, b := new(int), new(int)
	if !tr.Enter(a, EmptyPath, InteractionCalled) {
		t.Fatal("fresh Enter returned false")
	}
	if !tr.Enter(b, EmptyPath, InteractionCalled) {
		t.Error("distinct entity blocked by another entity's query")
	}
}
