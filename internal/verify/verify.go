// Package verify re-checks that every flow in a generated trace actually
// falls inside the match space of the rule it was generated against (spec
// §5 "Concurrency & resource model" [EXPANSION]: this read-only pass is the
// one place the generator is allowed to fan out across goroutines, since it
// never touches the single seeded RNG the core engine depends on for
// determinism). Worker-pool shape adapted from the teacher's
// pkg/search/worker.go.
package verify

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowsynth/corpusgen/internal/bitint"
	"github.com/flowsynth/corpusgen/internal/field"
	"github.com/flowsynth/corpusgen/internal/rule"
	"github.com/flowsynth/corpusgen/internal/trace"
)

// Pool drives the parallel flow-verification pass. NumWorkers == 1 makes it
// fully sequential, which is the CLI default so runs stay reproducible
// top-to-bottom even though verification order never affects the trace
// itself (it is read-only).
type Pool struct {
	NumWorkers int

	checked atomic.Int64
	failed  atomic.Int64

	mu        sync.Mutex
	mismatches []Mismatch
}

// Mismatch records one flow whose declared rule did not actually match it.
type Mismatch struct {
	FlowIndex int
	RuleIndex int
}

// NewPool creates a pool with the given worker count (<=0 uses NumCPU).
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{NumWorkers: numWorkers}
}

// Stats returns the running totals after Run completes.
func (p *Pool) Stats() (checked, failed int64) {
	return p.checked.Load(), p.failed.Load()
}

// Mismatches returns every flow found not to match its declared rule.
func (p *Pool) Mismatches() []Mismatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Mismatch, len(p.mismatches))
	copy(out, p.mismatches)
	return out
}

// Run verifies every flow against rules[flow.RuleIndex], fanning out across
// p.NumWorkers goroutines, and reports progress every 10 seconds for runs
// large enough to take a while.
func (p *Pool) Run(flows []trace.Flow, rules []*rule.Rule, progress bool) {
	ch := make(chan int, len(flows))
	for i := range flows {
		ch <- i
	}
	close(ch)

	done := make(chan struct{})
	start := time.Now()
	if progress {
		go p.reportProgress(done, start, int64(len(flows)))
	}

	var wg sync.WaitGroup
	for w := 0; w < p.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				p.verifyOne(i, flows[i], rules)
			}
		}()
	}
	wg.Wait()
	close(done)
}

func (p *Pool) verifyOne(idx int, fl trace.Flow, rules []*rule.Rule) {
	p.checked.Add(1)
	if fl.RuleIndex < 0 || fl.RuleIndex >= len(rules) {
		p.recordFailure(idx, fl.RuleIndex)
		return
	}
	r := rules[fl.RuleIndex]
	for i, f := range r.Fields {
		if !hits(f, fl.Values[i]) {
			p.recordFailure(idx, fl.RuleIndex)
			return
		}
	}
}

func hits(f field.Field, v bitint.Int) bool {
	lo, hi := f.Range()
	return lo.LessEqual(v) && v.LessEqual(hi)
}

func (p *Pool) recordFailure(flowIdx, ruleIdx int) {
	p.failed.Add(1)
	p.mu.Lock()
	p.mismatches = append(p.mismatches, Mismatch{FlowIndex: flowIdx, RuleIndex: ruleIdx})
	p.mu.Unlock()
}

func (p *Pool) reportProgress(done chan struct{}, start time.Time, total int64) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			checked := p.checked.Load()
			elapsed := time.Since(start)
			pct := float64(checked) / float64(total) * 100
			fmt.Printf("  [%s] %d/%d flows verified (%.1f%%) | %d failed\n",
				elapsed.Round(time.Second), checked, total, pct, p.failed.Load())
		}
	}
}
