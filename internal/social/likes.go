package social

// ToggleLike flips the acting user's membership in a likes set: present ids
// are removed, absent ids appended. The result is deduplicated so interleaved
// toggles never persist the same id twice. The caller rewrites the whole list
// at the storage layer, so concurrent togglers race last-writer-wins.
func ToggleLike(likes []string, userID string) []string {
	deduped := make([]string, 0, len(likes)+1)
	seen := make(map[string]struct{}, len(likes))
	found := false

	for _, id := range likes {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if id == userID {
			found = true
			continue
		}
		deduped = append(deduped, id)
	}

	if !found {
		deduped = append(deduped, userID)
	}
	return deduped
}
