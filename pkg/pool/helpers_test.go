package pool

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/catalog-probe/pkg/catalog"
)

// fakeProber is a scriptable Prober that records calls and concurrency.
type fakeProber struct {
	mu          sync.Mutex
	existing    map[catalog.Identifier]bool
	panicOn     map[catalog.Identifier]bool
	blockOn     map[catalog.Identifier]bool
	delays      map[catalog.Identifier]time.Duration
	delay       time.Duration
	release     chan struct{}
	calls       map[catalog.Identifier]int
	inFlight    int
	maxInFlight int
}

func newFakeProber(existing ...catalog.Identifier) *fakeProber {
	p := &fakeProber{
		existing: make(map[catalog.Identifier]bool),
		panicOn:  make(map[catalog.Identifier]bool),
		blockOn:  make(map[catalog.Identifier]bool),
		delays:   make(map[catalog.Identifier]time.Duration),
		release:  make(chan struct{}),
		calls:    make(map[catalog.Identifier]int),
	}
	for _, id := range existing {
		p.existing[id] = true
	}
	return p
}

func (p *fakeProber) Probe(ctx context.Context, id catalog.Identifier) catalog.Result {
	p.mu.Lock()
	p.calls[id]++
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	exists := p.existing[id]
	shouldPanic := p.panicOn[id]
	block := p.blockOn[id]
	delay := p.delay
	if d, ok := p.delays[id]; ok {
		delay = d
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if shouldPanic {
		panic(fmt.Sprintf("probe of %s exploded", id))
	}
	if block {
		select {
		case <-p.release:
		case <-ctx.Done():
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	return catalog.Result{Identifier: id, Exists: exists}
}

func (p *fakeProber) callCount(id catalog.Identifier) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func (p *fakeProber) peakInFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxInFlight
}

// syncBuffer serializes concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// sequence returns n distinct identifiers.
func sequence(n int) []catalog.Identifier {
	ids := make([]catalog.Identifier, n)
	for i := range ids {
		ids[i] = catalog.Identifier(fmt.Sprintf("id-%03d", i))
	}
	return ids
}
