package harness

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// AnalysisScheduler is responsible for scheduling periodic analysis runs.
type AnalysisScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func() error)
	WaitForShutdown(ctx context.Context) error
	Stopped() bool
}

// DefaultAnalysisScheduler implements the AnalysisScheduler interface.
type DefaultAnalysisScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   *slog.Logger
	callback func() error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewDefaultAnalysisScheduler creates a new DefaultAnalysisScheduler.
func NewDefaultAnalysisScheduler(interval time.Duration, runOnce bool, logger *slog.Logger) *DefaultAnalysisScheduler {
	return &DefaultAnalysisScheduler{
		interval: interval,
		runOnce:  runOnce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RegisterCallback registers the callback to be called when an analysis should run.
func (s *DefaultAnalysisScheduler) RegisterCallback(callback func() error) {
	s.callback = callback
}

// Start starts the scheduler.
func (s *DefaultAnalysisScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.logger.Info("Starting scheduler in run-once mode")
		return s.callback()
	}

	s.logger.Info("Starting scheduler in continuous mode", "interval", s.interval)

	// Run the analysis immediately on startup
	err := s.callback()
	if err != nil {
		return err
	}

	// Start a goroutine for periodic analysis execution
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Debug("Starting periodic analysis goroutine", "interval", s.interval)

		for {
			select {
			case <-time.After(s.interval):
				// Check if we should still be running
				if !s.running.Load() {
					s.logger.Debug("Service stopped, exiting periodic analysis runner")
					return
				}

				// Run the analysis
				s.logger.Info("Running periodic analysis")
				if err := s.callback(); err != nil {
					s.logger.Error("Error running periodic analysis", "error", err)
				}
				s.logger.Info("Analysis run interval", "interval", s.interval)

			case <-s.done:
				s.logger.Debug("Done signal received, stopping periodic analysis runner")
				return

			case <-ctx.Done():
				s.logger.Debug("Context canceled, stopping periodic analysis runner")
				s.running.Store(false)
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler.
func (s *DefaultAnalysisScheduler) Stop() error {
	// Check if we're already stopped
	if !s.running.Load() {
		s.logger.Debug("Scheduler already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new analysis runs
	s.running.Store(false)

	// Signal goroutines to exit
	s.logger.Debug("Sending done signal to goroutines")
	close(s.done)

	return nil
}

// Stopped returns true if the scheduler is stopped.
func (s *DefaultAnalysisScheduler) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
func (s *DefaultAnalysisScheduler) WaitForShutdown(ctx context.Context) error {
	s.logger.Debug("Waiting for all goroutines to terminate")

	// Create a channel that will be closed when the WaitGroup is done
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	// Wait for either WaitGroup completion or context expiration
	select {
	case <-done:
		s.logger.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
