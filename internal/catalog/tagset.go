package catalog

import "sort"

// TagSet is an unordered set of tag ids.
type TagSet map[string]struct{}

// NewTagSet builds a TagSet from tag ids, dropping duplicates and empties.
func NewTagSet(tags ...string) TagSet {
	set := make(TagSet, len(tags))
	for _, tag := range tags {
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// Add inserts a tag into the set.
func (s TagSet) Add(tag string) {
	if tag != "" {
		s[tag] = struct{}{}
	}
}

// Contains reports membership.
func (s TagSet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Clone returns an independent copy.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for tag := range s {
		out[tag] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same tags.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for tag := range s {
		if !other.Contains(tag) {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
