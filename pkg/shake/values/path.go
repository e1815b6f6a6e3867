package values

import "strings"

// Key is a single property-access segment of an ObjectPath.
type Key = string

// UnknownKey stands for a property whose name is not statically known
// (computed member access, spread, and similar).
const UnknownKey Key = "\x00?"

// ObjectPath identifies a sub-part of a value as an ordered sequence of
// property keys. The empty path denotes the whole value.
type ObjectPath []Key

// EmptyPath is the path of the whole value.
var EmptyPath = ObjectPath{}

// Equals reports structural equality of two paths.
func (p ObjectPath) Equals(other ObjectPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i, k := range p {
		if other[i] != k {
			return false
		}
	}
	return true
}

// StartsWith reports whether prefix is a (possibly equal) prefix of p.
// A path is covered by any deoptimized prefix of itself. An UnknownKey
// segment in the prefix matches any key: a write through a computed
// member may hit every property, so it shadows each concrete one.
func (p ObjectPath) StartsWith(prefix ObjectPath) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, k := range prefix {
		if p[i] != k && k != UnknownKey {
			return false
		}
	}
	return true
}

// Extend returns a new path with key appended. The receiver is never
// mutated; entities hand paths to each other and must not alias.
func (p ObjectPath) Extend(key Key) ObjectPath {
	next := make(ObjectPath, len(p), len(p)+1)
	copy(next, p)
	return append(next, key)
}

// String renders the path dotted for tracker keys and verbose logs.
func (p ObjectPath) String() string {
	if len(p) == 0 {
		return "(self)"
	}
	parts := make([]string, len(p))
	for i, k := range p {
		if k == UnknownKey {
			parts[i] = "<?>"
		} else {
			parts[i] = string(k)
		}
	}
	return strings.Join(parts, ".")
}
