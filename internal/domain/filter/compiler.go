package filter

// Request carries the four independent filter channels of a list screen.
type Request struct {
	// Searches is the free-text box; a row matches if any entry matches.
	Searches []Condition `json:"searches,omitempty"`

	// CustomSearches are conditions built by the calling code.
	CustomSearches []Condition `json:"customSearches,omitempty"`

	// AdvancedSearches come from the advanced search panel.
	AdvancedSearches []Condition `json:"advancedSearches,omitempty"`

	// Filters are per-column table filters.
	Filters []Condition `json:"filters,omitempty"`
}

// IsEmpty reports whether no channel carries a condition.
func (r Request) IsEmpty() bool {
	return len(r.Searches) == 0 && len(r.CustomSearches) == 0 &&
		len(r.AdvancedSearches) == 0 && len(r.Filters) == 0
}

// Compile merges all channels into one And group:
//
//	AND( OR(searches...), customSearches..., advancedSearches..., filters... )
//
// Conditions on excluded fields are removed from every channel, including
// nested groups. Channels left empty contribute nothing, so an empty request
// compiles to True().
func Compile(req Request, excluded ...string) Condition {
	skip := make(map[string]struct{}, len(excluded))
	for _, f := range excluded {
		skip[f] = struct{}{}
	}

	var parts []Condition

	if searches := prune(req.Searches, skip); len(searches) > 0 {
		parts = append(parts, AnyOf(searches...))
	}
	parts = append(parts, prune(req.CustomSearches, skip)...)
	parts = append(parts, prune(req.AdvancedSearches, skip)...)
	parts = append(parts, prune(req.Filters, skip)...)

	if len(parts) == 0 {
		return True()
	}
	return AllOf(parts...)
}

// prune copies conds without excluded fields. A group whose children are all
// excluded is dropped instead of collapsing into a constant.
func prune(conds []Condition, skip map[string]struct{}) []Condition {
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if kept, ok := pruneOne(c, skip); ok {
			out = append(out, kept)
		}
	}
	return out
}

func pruneOne(c Condition, skip map[string]struct{}) (Condition, bool) {
	if !c.IsGroup() {
		if _, excluded := skip[c.Field]; excluded {
			return Condition{}, false
		}
		return c, true
	}
	if len(c.Children) == 0 {
		// Constants carry no field and pass through untouched.
		return c, true
	}
	children := prune(c.Children, skip)
	if len(children) == 0 {
		return Condition{}, false
	}
	logic := c.Logic
	if logic == "" {
		logic = And
	}
	return Condition{Logic: logic, Children: children}, true
}
