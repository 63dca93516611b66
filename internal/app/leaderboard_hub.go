package app

import (
	"sync"

	"trivia-quiz/internal/domain"
)

// LeaderboardHub fans out leaderboard snapshots to live subscribers.
// Each snapshot carries the ticket taken before it was read; a subscriber
// never receives a snapshot older than one it already got.
type LeaderboardHub struct {
	mu          sync.Mutex
	seq         uint64
	subscribers map[chan domain.Leaderboard]uint64
}

func NewLeaderboardHub() *LeaderboardHub {
	return &LeaderboardHub{
		subscribers: make(map[chan domain.Leaderboard]uint64),
	}
}

// Subscribers reports how many live subscriptions exist.
func (h *LeaderboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ticket orders snapshot reads. A read that starts after another sees every
// attempt recorded before it started.
func (h *LeaderboardHub) ticket() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return h.seq
}

// subscribe registers an empty subscription. Callers seed it with offer once
// they have read a snapshot, so publishes racing that read still land.
func (h *LeaderboardHub) subscribe() (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = 0
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// offer delivers a snapshot to one subscriber.
func (h *LeaderboardHub) offer(ch chan domain.Leaderboard, seq uint64, lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(ch, seq, lb)
}

func (h *LeaderboardHub) publish(seq uint64, lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		h.deliverLocked(ch, seq, lb)
	}
}

func (h *LeaderboardHub) deliverLocked(ch chan domain.Leaderboard, seq uint64, lb domain.Leaderboard) {
	last, ok := h.subscribers[ch]
	if !ok || seq <= last {
		return
	}
	h.subscribers[ch] = seq
	select {
	case ch <- lb:
	default:
		// Full buffer: drop the oldest snapshot so slow readers still see the newest.
		select {
		case <-ch:
		default:
		}
		ch <- lb
	}
}
