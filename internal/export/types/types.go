package types

// ExportRecord is one hashed subject entry in a snapshot. Subject IDs are
// hashed so other networks can match players against the list without
// learning the raw IDs.
type ExportRecord struct {
	Hash      string // hex digest of the subject ID
	Status    string // ban type for ban entries, "warned" for warning entries
	Reason    string // moderation reasons, joined when a subject has several
	Count     uint32 // active warnings behind the entry, 1 for ban entries
	ExpiresAt int64  // unix seconds at which the entry lapses, 0 for never
}
