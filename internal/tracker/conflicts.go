package tracker

import "github.com/laminotes/laminotes/internal/model"

// Conflict records two changes by different users whose sections cover the
// same span. Winner and Loser are insertion positions in the history.
type Conflict struct {
	Winner     int
	Loser      int
	WinnerUser string
	LoserUser  string
	Start      int
	End        int
	Resolution string
}

// Conflicts reports every overlap between sections of changes made by
// different users, resolved with the tracker's policy.
func (t *Tracker) Conflicts(meta model.MarkdownMetadata) []Conflict {
	changes := meta.Changes()
	order := t.policy.Order(changes)

	var out []Conflict
	for a := 0; a < len(order); a++ {
		for b := a + 1; b < len(order); b++ {
			earlier, later := changes[order[a]], changes[order[b]]
			if earlier.UserID == later.UserID {
				continue
			}
			for _, es := range earlier.Sections {
				for _, ls := range later.Sections {
					if !es.Overlaps(ls) {
						continue
					}
					start, end := es.Intersection(ls)
					out = append(out, Conflict{
						Winner:     order[b],
						Loser:      order[a],
						WinnerUser: later.UserID,
						LoserUser:  earlier.UserID,
						Start:      start,
						End:        end,
						Resolution: t.policy.Name(),
					})
				}
			}
		}
	}
	return out
}
