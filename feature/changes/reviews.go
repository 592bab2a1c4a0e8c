package changes

import (
	"encoding/json"
	"sync"
)

// reviewLimit bounds the number of scans remembered for a later accept.
const reviewLimit = 256

// review is what a scan reported, kept so an accept can check that it
// applies the changes the caller saw.
type review struct {
	req     ScanRequest
	changes []byte
}

// reviews remembers recent scans by id. The oldest entry is evicted once the
// limit is reached.
type reviews struct {
	mu    sync.Mutex
	limit int
	order []string
	byID  map[string]review
}

func newReviews(limit int) *reviews {
	return &reviews{limit: limit, byID: make(map[string]review)}
}

func (r *reviews) put(req ScanRequest, report *Report) error {
	changes, err := json.Marshal(report.Changes)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[report.ScanID]; !ok {
		r.order = append(r.order, report.ScanID)
	}
	r.byID[report.ScanID] = review{req: req, changes: changes}
	for len(r.order) > r.limit {
		delete(r.byID, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *reviews) get(id string) (review, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.byID[id]
	return rv, ok
}

func (r *reviews) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// matches reports whether report found exactly the reviewed changes.
func (rv review) matches(report *Report) bool {
	changes, err := json.Marshal(report.Changes)
	return err == nil && string(changes) == string(rv.changes)
}
