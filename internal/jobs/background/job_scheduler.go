package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"invoicelink/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	TrialExpirySweepJob = "trial-expiry-sweep"
	InvoiceOverdueJob   = "invoice-overdue"
)

// Options controls which jobs are registered and how often they run.
type Options struct {
	TrialSweepEnabled  bool
	TrialSweepApply    bool
	TrialSweepInterval time.Duration
	OverdueInterval    time.Duration
}

// JobScheduler runs the periodic account and invoice maintenance jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	accounts  services.AccountService
	invoices  services.InvoiceService
	opts      Options
	log       zerolog.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(accounts services.AccountService, invoices services.InvoiceService, clock clockwork.Clock, opts Options, log zerolog.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		accounts:  accounts,
		invoices:  invoices,
		opts:      opts,
		log:       log.With().Str("component", "scheduler").Logger(),
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info().Strs("jobs", js.JobNames()).Msg("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.log.Info().Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if js.opts.TrialSweepEnabled {
		if err := js.addJob(TrialExpirySweepJob, js.opts.TrialSweepInterval, js.sweepTrials); err != nil {
			return err
		}
	}
	return js.addJob(InvoiceOverdueJob, js.opts.OverdueInterval, js.markOverdue)
}

func (js *JobScheduler) addJob(name string, interval time.Duration, task func(ctx context.Context) error) error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task, context.Background()),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) sweepTrials(ctx context.Context) error {
	n, err := js.accounts.SweepExpiredTrials(ctx, js.opts.TrialSweepApply)
	if err != nil {
		js.log.Error().Err(err).Msg("trial expiry sweep failed")
		return err
	}
	js.log.Debug().Int("expired", n).Msg("trial expiry sweep ran")
	return nil
}

func (js *JobScheduler) markOverdue(ctx context.Context) error {
	n, err := js.invoices.MarkOverdue(ctx)
	if err != nil {
		js.log.Error().Err(err).Msg("overdue invoice check failed")
		return err
	}
	js.log.Debug().Int("marked", n).Msg("overdue invoice check ran")
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q is not registered", name)
	}
	return job.RunNow()
}

func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
