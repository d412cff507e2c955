// Package memory holds in-process implementations of the storage interfaces,
// used by service and handler tests.
package memory

import "sync"

// Any matches every id in a fault rule.
const Any int64 = -1

type faultKey struct {
	op string
	id int64
}

// faults lets tests make a named operation fail for a given id.
type faults struct {
	mu    sync.Mutex
	rules map[faultKey]error
}

// Fail makes op return err for id (or for every id when id is Any) until
// cleared with Clear.
func (f *faults) Fail(op string, id int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rules == nil {
		f.rules = make(map[faultKey]error)
	}
	f.rules[faultKey{op, id}] = err
}

func (f *faults) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

func (f *faults) check(op string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.rules[faultKey{op, id}]; ok {
		return err
	}
	return f.rules[faultKey{op, Any}]
}
