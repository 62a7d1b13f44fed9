package directory

// Entity is one member of the external directory. TagIDs is the full current
// assignment set, including tags this engine never manages.
type Entity struct {
	ID           string   `json:"id"`
	Handle       string   `json:"handle"`
	Discriminant string   `json:"discriminant,omitempty"`
	DisplayName  string   `json:"display_name,omitempty"`
	TagIDs       []string `json:"tag_ids"`
}

// Tag is directory-side tag metadata used for capability checks.
type Tag struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Rank    int    `json:"rank"`
	Managed bool   `json:"managed"` // owned by another integration; never touch
}

// JoinEvent announces an entity newly present in the directory membership.
type JoinEvent struct {
	Entity Entity
}

// CanMutate reports whether an actor of the given rank may add or remove the
// tag. Externally managed tags are off limits regardless of rank; otherwise
// the actor's rank must be strictly above the tag's.
func CanMutate(tag Tag, actorRank int) bool {
	if tag.Managed {
		return false
	}
	return actorRank > tag.Rank
}
