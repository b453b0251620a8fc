// Package notifier runs the scheduled forecast dispatch cycles.
package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/metrics"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type subscriptionRepository interface {
	GetConfirmedByFrequency(ctx context.Context, frequency string) ([]models.Subscription, error)
}

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type emailSender interface {
	SendWeather(ctx context.Context, sub models.Subscription, forecast models.WeatherData) error
}

// Notifier schedules and runs one dispatch cycle per due frequency tier.
// Cycles for different tiers may overlap; two runs of the same tier may not.
type Notifier struct {
	repo           subscriptionRepository
	weatherService weatherGetter
	emailService   emailSender
	log            *zap.Logger
	cron           *cron.Cron
	cancel         context.CancelFunc
	m              *metrics.Metrics

	hourlySpec   string
	dailySpec    string
	cycleTimeout time.Duration

	// one guard flag per tier
	running map[string]*atomic.Bool
}

func New(
	repo subscriptionRepository,
	ws weatherGetter,
	es emailSender,
	log *zap.Logger,
	hourlySpec, dailySpec string,
	cycleTimeout time.Duration,
	m *metrics.Metrics,
) *Notifier {
	return &Notifier{
		repo:           repo,
		weatherService: ws,
		emailService:   es,
		log:            log.With(zap.String("component", "Notifier")),
		cron:           cron.New(),
		hourlySpec:     hourlySpec,
		dailySpec:      dailySpec,
		cycleTimeout:   cycleTimeout,
		m:              m,
		running: map[string]*atomic.Bool{
			models.FreqHourly: {},
			models.FreqDaily:  {},
		},
	}
}

// Start registers both tier jobs and starts the cron runner.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	if _, err := n.cron.AddFunc(n.hourlySpec, func() { n.RunCycle(ctx, models.FreqHourly) }); err != nil {
		cancel()
		return err
	}
	if _, err := n.cron.AddFunc(n.dailySpec, func() { n.RunCycle(ctx, models.FreqDaily) }); err != nil {
		cancel()
		return err
	}

	n.cron.Start()
	n.log.Info("weather notifier started",
		zap.String("hourly_spec", n.hourlySpec), zap.String("daily_spec", n.dailySpec))
	return nil
}

// Stop cancels running cycles and waits for scheduled jobs to finish.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	stopCtx := n.cron.Stop()
	<-stopCtx.Done()
	n.log.Info("notifier stopped")
}

// RunCycle dispatches forecasts to every eligible subscriber of a tier. A
// tier whose previous cycle is still active skips this trigger instead of
// queueing behind it. Per-subscriber failures are logged and isolated; only
// a batch-load failure aborts the cycle.
func (n *Notifier) RunCycle(ctx context.Context, frequency string) {
	guard, ok := n.running[frequency]
	if !ok {
		n.log.Error("unknown frequency tier", zap.String("frequency", frequency))
		return
	}
	if !guard.CompareAndSwap(false, true) {
		n.log.Warn("previous cycle still running, skipping",
			zap.String("frequency", frequency))
		n.m.CronRunsSkipped.WithLabelValues(frequency).Inc()
		return
	}
	defer guard.Store(false)

	start := time.Now()
	n.m.CronRuns.WithLabelValues(frequency).Inc()

	ctx, cancel := context.WithTimeout(ctx, n.cycleTimeout)
	defer cancel()

	subs, err := n.repo.GetConfirmedByFrequency(ctx, frequency)
	if err != nil {
		n.log.Error("error fetching subscriptions, aborting cycle",
			zap.String("frequency", frequency), zap.Error(err))
		n.m.TechnicalErrors.WithLabelValues("fetch_subscriptions").Inc()
		return
	}
	n.log.Info("starting dispatch cycle",
		zap.String("frequency", frequency), zap.Int("count", len(subs)))

	var wg sync.WaitGroup
	wg.Add(len(subs))
	for _, sub := range subs {
		s := sub
		go func() {
			defer wg.Done()
			if err := n.SendOne(ctx, s); err != nil {
				n.log.Error("dispatch failed for subscriber",
					zap.String("email", s.Email),
					zap.String("city", s.City),
					zap.Error(err))
			}
		}()
	}
	wg.Wait()

	dur := time.Since(start)
	n.m.CronRunDuration.WithLabelValues(frequency).Observe(dur.Seconds())
	n.log.Info("dispatch cycle completed",
		zap.String("frequency", frequency), zap.Duration("duration", dur))
}

// SendOne resolves weather for one subscriber's city and emails the
// forecast. Resolve-then-send is atomic per subscriber.
func (n *Notifier) SendOne(ctx context.Context, sub models.Subscription) error {
	forecast, err := n.weatherService.GetByCity(ctx, sub.City)
	if err != nil {
		n.m.TechnicalErrors.WithLabelValues("weather_fetch").Inc()
		return err
	}

	if err := n.emailService.SendWeather(ctx, sub, forecast); err != nil {
		n.m.TechnicalErrors.WithLabelValues("email_send").Inc()
		return err
	}

	n.m.ForecastsSent.WithLabelValues(sub.Frequency).Inc()
	return nil
}
