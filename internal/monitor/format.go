package monitor

import "strings"

const ellipsis = "..."

// newDescriptions joins the descriptions of a batch of updates that differ
// from the one seen just before them, starting from last. It also returns the
// last description seen once the batch is applied.
func newDescriptions(updates []StatusUpdate, last string) (string, []string, string) {
	parts := make([]string, 0, len(updates))
	for _, u := range updates {
		if u.Description == "" || u.Description == last {
			continue
		}
		last = u.Description
		parts = append(parts, u.Description)
	}
	return strings.Join(parts, "; "), parts, last
}

// truncate shortens s to at most max runes, ending it with an ellipsis when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(r[:max])
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}
