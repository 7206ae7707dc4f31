package domain

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type counter int

const (
	counterReceived counter = iota
	counterDecoded
	counterForeign
	counterInvalidCommand
	counterFailed
	counterForwarded
	counterForwardFailed
	counterCount
)

// Stats счетчики обработки сообщений и последние показания по каждому топику.
// Методы безопасны для конкурентного вызова и для nil-получателя.
type Stats struct {
	started  time.Time
	counters [counterCount]atomic.Int64

	mu     sync.RWMutex
	latest map[string]Reading
}

type Snapshot struct {
	Received       int64  `json:"received"`
	Decoded        int64  `json:"decoded"`
	Foreign        int64  `json:"foreign"`
	InvalidCommand int64  `json:"invalid_command"`
	Failed         int64  `json:"failed"`
	Forwarded      int64  `json:"forwarded"`
	ForwardFailed  int64  `json:"forward_failed"`
	Uptime         string `json:"uptime"`
}

func NewStats(started time.Time) *Stats {
	return &Stats{
		started: started,
		latest:  make(map[string]Reading),
	}
}

func (s *Stats) inc(c counter) {
	if s == nil {
		return
	}
	s.counters[c].Add(1)
}

func (s *Stats) setLatest(r Reading) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.latest[r.Topic] = r
	s.mu.Unlock()
}

func (s *Stats) Snapshot(now time.Time) Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		Received:       s.counters[counterReceived].Load(),
		Decoded:        s.counters[counterDecoded].Load(),
		Foreign:        s.counters[counterForeign].Load(),
		InvalidCommand: s.counters[counterInvalidCommand].Load(),
		Failed:         s.counters[counterFailed].Load(),
		Forwarded:      s.counters[counterForwarded].Load(),
		ForwardFailed:  s.counters[counterForwardFailed].Load(),
		Uptime:         now.Sub(s.started).Truncate(time.Second).String(),
	}
}

// Latest последние показания по всем топикам, отсортированные по топику
func (s *Stats) Latest() []Reading {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	readings := make([]Reading, 0, len(s.latest))
	for _, r := range s.latest {
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Topic < readings[j].Topic })
	return readings
}

func (s *Stats) LatestFor(topic string) (Reading, bool) {
	if s == nil {
		return Reading{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[topic]
	return r, ok
}
