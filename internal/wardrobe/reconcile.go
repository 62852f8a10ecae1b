package wardrobe

// Match is one item the model claims appears in an outfit suggestion.
type Match struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Reconcile maps model matches back to the caller's wardrobe records.
//
// Matching is by exact ID. Empty IDs and IDs the wardrobe does not contain
// are dropped, as are repeats of an ID already matched. The result follows
// the order of matches, not the wardrobe order, and is never nil.
func Reconcile(matches []Match, items []Item) []Item {
	byID := make(map[string]int, len(items))
	for i, it := range items {
		if _, dup := byID[it.ID]; !dup {
			byID[it.ID] = i
		}
	}

	found := make([]Item, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		idx, ok := byID[m.ID]
		if !ok || m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		found = append(found, items[idx])
	}
	return found
}
