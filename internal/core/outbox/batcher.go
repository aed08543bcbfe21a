package outbox

// Batch groups entries into delivery batches under a count limit and a
// cumulative UTF-8 payload byte limit. Entries are consumed in input order;
// order is preserved across and within batches and no entry is dropped.
//
// The byte limit only applies once a batch is non-empty, so a single entry
// larger than maxBytes still forms its own one-entry batch.
func Batch(entries []*Entry, maxCount, maxBytes int) [][]*Entry {
	if len(entries) == 0 {
		return nil
	}

	var batches [][]*Entry
	var current []*Entry
	currentBytes := 0

	for _, entry := range entries {
		size := len(entry.Payload)

		if len(current) > 0 && (len(current) >= maxCount || currentBytes+size > maxBytes) {
			batches = append(batches, current)
			current = nil
			currentBytes = 0
		}

		current = append(current, entry)
		currentBytes += size
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
