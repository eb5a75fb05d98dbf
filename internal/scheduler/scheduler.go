package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"SkyTrader/internal/runner"
)

// Sender delivers plain text alerts.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler re-runs the backtest on a cron schedule over a trailing window.
type Scheduler struct {
	Cron         *cron.Cron
	Runner       *runner.Runner
	Sender       Sender
	Symbol       string
	LookbackDays int
	Ctx          context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler. sender may be nil.
func NewScheduler(ctx context.Context, r *runner.Runner, sender Sender, symbol string, lookbackDays int) *Scheduler {
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Runner:       r,
		Sender:       sender,
		Symbol:       symbol,
		LookbackDays: lookbackDays,
		Ctx:          ctx,
		now:          time.Now,
	}
}

// Register adds the backtest job under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.task); err != nil {
		return fmt.Errorf("register backtest task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// Request returns the trailing window ending today.
func (s *Scheduler) Request() runner.Request {
	end := s.now().UTC().Truncate(24 * time.Hour)
	return runner.Request{
		Symbol: s.Symbol,
		Start:  end.AddDate(0, 0, -s.LookbackDays),
		End:    end,
	}
}

// RunNow executes the backtest job immediately.
func (s *Scheduler) RunNow() (*runner.Outcome, error) {
	out, err := s.Runner.Run(s.Ctx, s.Request())
	if err != nil {
		s.trySend(fmt.Sprintf("❌ Scheduled backtest for %s failed: %v", s.Symbol, err))
		return nil, err
	}
	return out, nil
}

func (s *Scheduler) task() {
	log.Infof("running scheduled backtest for %s", s.Symbol)
	if _, err := s.RunNow(); err != nil {
		log.Errorf("scheduled backtest: %v", err)
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	if command == "/run" {
		if _, err := s.RunNow(); err != nil {
			return fmt.Sprintf("Backtest failed: %v", err)
		}
		// the report itself goes out through the runner's notifier
		return ""
	}
	if reply := s.Runner.HandleCommand(command); reply != "" {
		return reply
	}
	return "Available commands:\n/run - backtest now\n/last - latest backtest report\n/runs - recent recorded runs"
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send notification: %v", err)
	}
}
