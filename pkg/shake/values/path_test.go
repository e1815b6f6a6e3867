package values

import "testing"

func TestObjectPath_StartsWith(t *testing.T) {
	tests := []struct {
		name   string
		path   ObjectPath
		prefix ObjectPath
		want   bool
	}{
		{
			name:   "empty prefix covers everything",
			path:   ObjectPath{"a", "b"},
			prefix: EmptyPath,
			want:   true,
		},
		{
			name:   "exact match",
			path:   ObjectPath{"a", "b"},
			prefix: ObjectPath{"a", "b"},
			want:   true,
		},
		{
			name:   "proper prefix",
			path:   ObjectPath{"a", "b", "c"},
			prefix: ObjectPath{"a"},
			want:   true,
		},
		{
			name:   "longer than path",
			path:   ObjectPath{"a"},
			prefix: ObjectPath{"a", "b"},
			want:   false,
		},
		{
			name:   "diverging key",
			path:   ObjectPath{"a", "b"},
			prefix: ObjectPath{"a", "x"},
			want:   false,
		},
		{
			name:   "unknown key in prefix matches any key",
			path:   ObjectPath{"a", "b"},
			prefix: ObjectPath{UnknownKey},
			want:   true,
		},
		{
			name:   "concrete prefix key does not match an unknown path key",
			path:   ObjectPath{UnknownKey, "b"},
			prefix: ObjectPath{"a"},
			want:   false,
		},
		{
			name:   "unknown key does not rescue a diverging tail",
			path:   ObjectPath{"a", "b"},
			prefix: ObjectPath{UnknownKey, "x"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.StartsWith(tt.prefix); got != tt.want {
				t.Errorf("StartsWith(%v, %v) = %v, want %v", tt.path, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestObjectPath_ExtendDoesNotAlias(t *testing.T) {
	base := ObjectPath{"a"}
	p1 := base.Extend("b")
	p2 := base.Extend("c")
	if !p1.Equals(ObjectPath{"a", "b"}) {
		t.Errorf("p1 = %v, want a.b", p1)
	}
	if !p2.Equals(ObjectPath{"a", "c"}) {
		t.Errorf("p2 = %v, want a.c (Extend must not share backing storage)", p2)
	}
}

func TestObjectPath_String(t *testing.T) {
	if got := EmptyPath.String(); got != "(self)" {
		t.Errorf("empty path string = %q", got)
	}
	p := ObjectPath{"a", UnknownKey, "b"}
	if got := p.String(); got != "a.<?>.b" {
		t.Errorf("path string = %q", got)
	}
}

func TestPathDeopts_MonotoneAndIdempotent(t *testing.T) {
	var d PathDeopts
	if !d.Add(ObjectPath{"a"}) {
		t.Fatal("first Add returned false")
	}
	if d.Add(ObjectPath{"a"}) {
		t.Error("repeated Add returned true")
	}
	if d.Add(ObjectPath{"a", "b"}) {
		t.Error("Add of covered deeper path returned true")
	}
	if !d.Covers(ObjectPath{"a", "b", "c"}) {
		t.Error("deeper path not covered by deoptimized prefix")
	}
	if d.Covers(ObjectPath{"x"}) {
		t.Error("unrelated path reported covered")
	}
}

func TestPathDeopts_UnknownKeyCoversConcreteKeys(t *testing.T) {
	var d PathDeopts
	d.Add(ObjectPath{"a"})
	if !d.Add(ObjectPath{UnknownKey}) {
		t.Fatal("unknown-key deopt treated as covered by a concrete one")
	}
	if !d.Covers(ObjectPath{"b"}) {
		t.Error("concrete key not covered after an unknown-key deopt")
	}
	if d.Add(ObjectPath{"c"}) {
		t.Error("concrete Add after an unknown-key deopt returned true")
	}
}

type countingListener struct{ n int }

func (c *countingListener) DeoptimizeCache() { c.n++ }

func TestPathDeopts_NotifiesListenersOncePerWidening(t *testing.T) {
	var d PathDeopts
	l := &countingListener{}
	d.Subscribe(l)
	d.Subscribe(l) // duplicate subscription is ignored

	d.Add(ObjectPath{"a"})
	d.Add(ObjectPath{"a"}) // covered, no notification
	d.Add(ObjectPath{"b"})

	if l.n != 2 {
		t.Errorf("listener notified %d times, want 2", l.n)
	}
}
