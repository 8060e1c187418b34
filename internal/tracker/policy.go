package tracker

import (
	"sort"

	"github.com/laminotes/laminotes/internal/model"
)

// ConflictPolicy decides the order in which change sets are replayed. Where
// sections of different changes cover the same span, the change applied last
// determines the content.
type ConflictPolicy interface {
	// Name identifies the resolution in conflict reports.
	Name() string
	// Order returns insertion positions of changes in application order.
	Order(changes []model.DocumentChange) []int
}

// LastWriterWins replays changes by timestamp; equal timestamps keep their
// insertion order. It is the default policy.
type LastWriterWins struct{}

// Name implements ConflictPolicy.
func (LastWriterWins) Name() string { return "last_write_wins" }

// Order implements ConflictPolicy.
func (LastWriterWins) Order(changes []model.DocumentChange) []int {
	order := make([]int, len(changes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return changes[order[a]].Timestamp.Before(changes[order[b]].Timestamp)
	})
	return order
}
