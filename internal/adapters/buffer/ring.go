package buffer

import (
	"sort"
	"sync"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
)

// Ring keeps the most recent readings per channel, bounded by capacity.
// When a channel is full the oldest reading is evicted.
type Ring struct {
	mu   sync.Mutex
	data map[string]domain.Series
	cap  int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		data: make(map[string]domain.Series),
		cap:  capacity,
	}
}

// Append stores r and reports whether an older reading was evicted.
func (q *Ring) Append(r domain.Reading) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.data[r.Channel]
	evicted := false
	if len(s) >= q.cap {
		s = append(s[:0], s[1:]...)
		evicted = true
	}
	// Late arrivals are rare; keep the series ordered on insert.
	idx := sort.Search(len(s), func(i int) bool { return s[i].Time.After(r.Time) })
	s = append(s, domain.Reading{})
	copy(s[idx+1:], s[idx:])
	s[idx] = r
	q.data[r.Channel] = s
	return evicted
}

// Window returns a copy of the readings of channel in [start, stop]. A nil
// stop is open-ended.
func (q *Ring) Window(channel string, start time.Time, stop *time.Time) domain.Series {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.data[channel]
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Time.Before(start) })
	hi := len(s)
	if stop != nil {
		hi = sort.Search(len(s), func(i int) bool { return s[i].Time.After(*stop) })
	}
	if lo >= hi {
		return nil
	}
	out := make(domain.Series, hi-lo)
	copy(out, s[lo:hi])
	return out
}

func (q *Ring) Len(channel string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data[channel])
}

// Reset drops everything buffered.
func (q *Ring) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.data = make(map[string]domain.Series)
}
