package warehouse

// Selection is the caller-owned "current client / highlighted identifier" context.
// It is passed in and returned by value; nothing in this package stores it.
type Selection struct {
	ClientID    int
	Highlighted string
}

// DefaultSelection selects "All Clients" with nothing highlighted
func DefaultSelection() Selection {
	return Selection{ClientID: AllClientsID}
}

// Apply returns the selection after consuming an outcome.
// Found selects the owning client and highlights the match; every other outcome
// keeps the client and clears the highlight.
func (s Selection) Apply(o Outcome) Selection {
	if o.IsFound() {
		return Selection{ClientID: o.Client.ID, Highlighted: o.Identifier}
	}
	return Selection{ClientID: s.ClientID}
}

// IsHighlighted returns true if the identifier is the highlighted one
func (s Selection) IsHighlighted(identifier string) bool {
	return s.Highlighted != "" && s.Highlighted == identifier
}
