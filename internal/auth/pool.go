package auth

import (
	"context"
	"fmt"
	"sync"
)

type verifyJob struct {
	encodedHash string
	candidate   string
	result      chan error
}

// VerifyPool runs password-hash verification on a fixed set of
// dedicated goroutines so the memory-hard computation never runs on a
// request goroutine. Callers block until their job completes; the pool
// only bounds how many verifications run at once.
type VerifyPool struct {
	jobs    chan verifyJob
	workers int

	mu      sync.Mutex
	wg      sync.WaitGroup
	running bool
}

// NewVerifyPool creates a pool with the given number of workers
func NewVerifyPool(workers int) *VerifyPool {
	if workers < 1 {
		workers = 1
	}
	return &VerifyPool{
		jobs:    make(chan verifyJob),
		workers: workers,
	}
}

// Start launches the worker goroutines
func (p *VerifyPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("verify pool already running")
	}
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

// Stop shuts the pool down and waits for in-flight jobs
func (p *VerifyPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
}

func (p *VerifyPool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job.result <- verifyPasswordHash(job.encodedHash, job.candidate)
	}
}

// Verify submits one verification and waits for its outcome. The
// caller's context bounds the wait, not the computation itself.
func (p *VerifyPool) Verify(ctx context.Context, encodedHash, candidate string) error {
	job := verifyJob{
		encodedHash: encodedHash,
		candidate:   candidate,
		result:      make(chan error, 1),
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return fmt.Errorf("waiting for verify worker: %w", ctx.Err())
	}

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for verify result: %w", ctx.Err())
	}
}
