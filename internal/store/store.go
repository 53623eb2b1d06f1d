// Package store holds the client-side state stores. Each store is a plain
// struct owned by the app container, guarded by its own mutex, with
// imperative action methods that call the backend and update local state
// optimistically: apply, request, and on failure roll back to the snapshot
// taken before the apply. Mutations against the same entity are serialized
// so two rapid taps cannot interleave their rollbacks.
package store

import "sync"

// notifier fans out change signals to subscribers. Sends never block; a
// subscriber that has not drained its channel simply coalesces signals.
type notifier struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// Subscribe returns a signal channel and a cancel func. The channel gets a
// (coalesced) signal after every committed state change.
func (n *notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]chan struct{})
	}
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
			// signal already pending
		}
	}
}

// keyedLocks hands out one mutex per key so in-flight mutations on the same
// entity run strictly in order while different entities stay independent.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the key is free and returns the unlock func.
func (k *keyedLocks) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l := k.locks[key]
	if l == nil {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
