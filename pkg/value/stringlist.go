package value

// StringList is an ordered, duplicate-free collection of strings. Order of
// first insertion is preserved; this is the order every kind's pack/unpack
// and report phrasing depend on for reproducibility.
type StringList struct {
	items []string
	index map[string]int
}

// NewStringList builds a StringList from zero or more strings, in order,
// dropping duplicates after the first occurrence.
func NewStringList(items ...string) *StringList {
	l := &StringList{index: make(map[string]int)}
	for _, it := range items {
		l.Add(it)
	}
	return l
}

// Add appends s if not already present. Returns true if s was newly added.
func (l *StringList) Add(s string) bool {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, ok := l.index[s]; ok {
		return false
	}
	l.index[s] = len(l.items)
	l.items = append(l.items, s)
	return true
}

// Remove deletes s if present, preserving the relative order of what
// remains. Returns true if s was present.
func (l *StringList) Remove(s string) bool {
	i, ok := l.index[s]
	if !ok {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.index, s)
	for k, v := range l.index {
		if v > i {
			l.index[k] = v - 1
		}
	}
	return true
}

// Has reports whether s is a member.
func (l *StringList) Has(s string) bool {
	_, ok := l.index[s]
	return ok
}

// Items returns the members in insertion order. The slice is owned by the
// caller and safe to mutate.
func (l *StringList) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of members.
func (l *StringList) Len() int {
	return len(l.items)
}

// Join concatenates members with sep, the wire representation used by
// pack for member/alias collections.
func (l *StringList) Join(sep string) string {
	out := ""
	for i, it := range l.items {
		if i > 0 {
			out += sep
		}
		out += it
	}
	return out
}

// SplitStringList parses the inverse of Join. An empty string yields an
// empty, non-nil list rather than a list containing one empty element.
func SplitStringList(s, sep string) *StringList {
	l := NewStringList()
	if s == "" {
		return l
	}
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			l.Add(s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	l.Add(s[start:])
	return l
}

// Diff computes the symmetric pieces needed to reconcile from curr to want:
// added holds members of want not in curr, removed holds members of curr
// not in want, both in the order they appear in their source list.
func Diff(curr, want *StringList) (added, removed []string) {
	for _, s := range want.Items() {
		if !curr.Has(s) {
			added = append(added, s)
		}
	}
	for _, s := range curr.Items() {
		if !want.Has(s) {
			removed = append(removed, s)
		}
	}
	return added, removed
}

// Union returns a new StringList containing every member of a followed by
// every not-yet-seen member of b.
func Union(a, b *StringList) *StringList {
	out := NewStringList(a.Items()...)
	for _, s := range b.Items() {
		out.Add(s)
	}
	return out
}

// Subtract returns a new StringList containing a's members with any member
// also present in b removed.
func Subtract(a, b *StringList) *StringList {
	out := NewStringList()
	for _, s := range a.Items() {
		if !b.Has(s) {
			out.Add(s)
		}
	}
	return out
}
