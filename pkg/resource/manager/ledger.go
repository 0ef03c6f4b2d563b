package manager

import (
	"sort"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"

	"github.com/bacalhau-project/governor/pkg/models"
)

// ledger is the in-memory record of granted allocations. It keeps a running
// total per resource type so limit checks don't walk every allocation.
type ledger struct {
	mu          sync.RWMutex
	allocations map[string]models.ResourceAllocation
	totals      map[models.ResourceType]int64
}

func newLedger() *ledger {
	l := &ledger{
		allocations: make(map[string]models.ResourceAllocation),
		totals:      make(map[models.ResourceType]int64),
	}
	l.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "ResourceManager.ledger.mu",
	})
	return l
}

// insert records a new allocation. It returns false if the id is already taken.
func (l *ledger) insert(a models.ResourceAllocation) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.allocations[a.ID]; ok {
		return false
	}
	l.allocations[a.ID] = a
	l.totals[a.Type] += a.Amount
	return true
}

func (l *ledger) remove(id string) (models.ResourceAllocation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.allocations[id]
	if !ok {
		return a, false
	}
	delete(l.allocations, id)
	l.totals[a.Type] -= a.Amount
	return a, true
}

func (l *ledger) get(id string) (models.ResourceAllocation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.allocations[id]
	return a, ok
}

func (l *ledger) total(t models.ResourceType) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totals[t]
}

// snapshot returns the per type totals and the allocations ordered by grant time.
func (l *ledger) snapshot() (map[models.ResourceType]int64, []models.ResourceAllocation) {
	l.mu.RLock()
	totals := make(map[models.ResourceType]int64, len(l.totals))
	for t, v := range l.totals {
		totals[t] = v
	}
	list := make([]models.ResourceAllocation, 0, len(l.allocations))
	for _, a := range l.allocations {
		list = append(list, a)
	}
	l.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].AllocatedAt.Equal(list[j].AllocatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].AllocatedAt.Before(list[j].AllocatedAt)
	})
	return totals, list
}

func (l *ledger) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.allocations)
}
