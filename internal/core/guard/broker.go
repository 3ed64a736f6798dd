package guard

import (
	"context"
	"sync"
)

// Broker is the shared identity-resolution service the guards subscribe
// to. It resolves through a single underlying Resolver and fans out every
// change of result, so all mounted surfaces reach the same redirect
// decision during one navigation instead of each holding private session
// state.
type Broker struct {
	resolver Resolver

	mu   sync.Mutex
	last *Resolution
	subs map[int]func(Resolution)
	next int
}

// NewBroker wraps a resolver with subscribe/notify fan-out.
func NewBroker(resolver Resolver) *Broker {
	return &Broker{
		resolver: resolver,
		subs:     make(map[int]func(Resolution)),
	}
}

// Resolve resolves the session and notifies subscribers when the result
// changed since the previous resolution.
func (b *Broker) Resolve(ctx context.Context) (Resolution, error) {
	res, err := b.resolver.Resolve(ctx)
	if err != nil {
		return Resolution{}, err
	}
	b.publish(res)
	return res, nil
}

// Invalidate forces a fresh resolution cycle, typically after logout, so
// every subscribed guard re-evaluates.
func (b *Broker) Invalidate(ctx context.Context) {
	res, err := b.resolver.Resolve(ctx)
	if err != nil {
		res = Resolution{}
	}
	b.publish(res)
}

// Subscribe registers fn for result-change notifications and returns a
// cancel function. Cancel is safe to call more than once.
func (b *Broker) Subscribe(fn func(Resolution)) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Broker) publish(res Resolution) {
	b.mu.Lock()
	if b.last != nil && *b.last == res {
		b.mu.Unlock()
		return
	}
	b.last = &res
	fns := make([]func(Resolution), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(res)
	}
}
