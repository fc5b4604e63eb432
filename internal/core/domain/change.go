package domain

// ChangeSet partitions discovered file paths against the content store's
// stored hashes. Produced by change detection; carries no store state.
type ChangeSet struct {
	// New are paths absent from the content store.
	New []string

	// Changed are stored paths whose current content hash differs.
	Changed []string

	// Unchanged are stored paths whose content hash matches byte for
	// byte. Timestamp differences alone never land a path here or in
	// Changed; only file bytes decide.
	Unchanged []string

	// Unreadable are paths whose bytes could not be read for hashing.
	// They are counted as failures by the batch without touching stores.
	Unreadable []string
}

// ToProcess returns the paths requiring processing: new followed by changed.
func (c *ChangeSet) ToProcess() []string {
	out := make([]string, 0, len(c.New)+len(c.Changed))
	out = append(out, c.New...)
	out = append(out, c.Changed...)
	return out
}
