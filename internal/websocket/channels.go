// internal/websocket/channels.go
package websocket

import (
	"sort"
	"sync"

	wstypes "tipster-service/internal/domain/websocket"
)

type channelSet struct {
	mu  sync.RWMutex
	set map[wstypes.Channel]struct{}
}

func newChannelSet(initial ...wstypes.Channel) *channelSet {
	s := &channelSet{set: make(map[wstypes.Channel]struct{}, len(initial))}
	for _, ch := range initial {
		s.set[ch] = struct{}{}
	}
	return s
}

func (s *channelSet) add(ch wstypes.Channel) {
	s.mu.Lock()
	s.set[ch] = struct{}{}
	s.mu.Unlock()
}

func (s *channelSet) remove(ch wstypes.Channel) {
	s.mu.Lock()
	delete(s.set, ch)
	s.mu.Unlock()
}

func (s *channelSet) has(ch wstypes.Channel) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[ch]
	return ok
}

// list is sorted so frames listing channels are stable.
func (s *channelSet) list() []wstypes.Channel {
	s.mu.RLock()
	out := make([]wstypes.Channel, 0, len(s.set))
	for ch := range s.set {
		out = append(out, ch)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
