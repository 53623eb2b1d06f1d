package apiclient

import "sync"

// Guard drops stale responses. A caller takes a ticket for a key before
// issuing a request and applies the result only if the ticket is still the
// newest one for that key, so a slow earlier response can never overwrite a
// faster later one.
type Guard struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func NewGuard() *Guard {
	return &Guard{latest: make(map[string]uint64)}
}

func (g *Guard) Ticket(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[key]++
	return g.latest[key]
}

func (g *Guard) Current(key string, ticket uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[key] == ticket
}
