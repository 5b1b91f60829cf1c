// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package budget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// usageEvent is one recorded paid call waiting in the async queue.
type usageEvent struct {
	provider     string
	operation    core.Operation
	units        int
	collectionID core.ID
	at           time.Time
}

// Summary is the read-side view of one budget period.
type Summary struct {
	Period         string
	Budget         float64
	CurrentSpend   float64
	PercentageUsed float64
	Breakdown      map[PriceKey]float64
}

// Guard tracks paid API spend against a monthly ceiling and forces routing
// onto free providers once the ceiling is reached.
//
// State machine per period: under-budget, warned (>= WarnFraction of the
// limit, one warning alert), limited (>= limit, one limit alert, fallback
// forced). The state resets when the period rolls over.
//
// RecordUsage is asynchronous: events pass through a buffered channel to a
// single consumer goroutine, so threshold crossings are observed exactly once
// even under concurrent paid calls, and recording failures never propagate to
// the caller's primary operation.
type Guard struct {
	cfg    *Config
	usage  storage.UsageRepository
	alerts storage.AlertRepository
	logger *slog.Logger

	// now is replaceable for tests.
	now func() time.Time

	mu        sync.Mutex
	period    string
	spend     float64
	breakdown map[PriceKey]float64
	warned    bool
	limited   bool
	closed    bool

	queue   chan usageEvent
	pending sync.WaitGroup
	done    chan struct{}
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// WithConfig sets the guard configuration. Default is DefaultConfig().
func WithConfig(cfg *Config) GuardOption {
	return func(g *Guard) {
		if cfg != nil {
			g.cfg = cfg
		}
	}
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a budget guard over the given repositories, rehydrates the
// current period's spend and alert state from the store, and starts the async
// consumer. Caller must Close when done.
func NewGuard(usage storage.UsageRepository, alerts storage.AlertRepository, opts ...GuardOption) (*Guard, error) {
	if usage == nil || alerts == nil {
		return nil, ErrRepositoryRequired
	}

	g := &Guard{
		cfg:    DefaultConfig(),
		usage:  usage,
		alerts: alerts,
		logger: slog.Default().With("component", "budget-guard"),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	g.queue = make(chan usageEvent, g.cfg.QueueSize)
	g.resetLocked(core.PeriodOf(g.now()))
	if err := g.rehydrate(); err != nil {
		return nil, err
	}

	go g.consume()
	return g, nil
}

// RecordUsage queues one paid call for cost tracking. It never blocks and
// never returns an error: a full queue or a closed guard drops the event with
// a log entry, per the record-failure-must-not-fail-the-caller contract.
func (g *Guard) RecordUsage(provider string, operation core.Operation, units int, collectionID core.ID) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.logger.Warn("usage dropped, guard closed", "provider", provider, "operation", operation)
		return
	}
	g.pending.Add(1)
	g.mu.Unlock()

	event := usageEvent{
		provider:     provider,
		operation:    operation,
		units:        units,
		collectionID: collectionID,
		at:           g.now().UTC(),
	}
	select {
	case g.queue <- event:
	default:
		g.pending.Done()
		g.logger.Warn("usage dropped, queue full",
			"provider", provider, "operation", operation, "units", units)
	}
}

// ForcedFallback reports whether paid providers are currently disallowed.
// Implements ai.FallbackPolicy.
func (g *Guard) ForcedFallback() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()
	return g.limited
}

// CurrentSpend returns the total spend for a period. The current period is
// answered from memory; past periods are summed from the store.
func (g *Guard) CurrentSpend(ctx context.Context, period string) (float64, error) {
	g.mu.Lock()
	g.rolloverLocked()
	if period == g.period {
		spend := g.spend
		g.mu.Unlock()
		return spend, nil
	}
	g.mu.Unlock()

	records, err := g.usage.GetUsageByPeriod(ctx, period)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, record := range records {
		total += record.Cost
	}
	return total, nil
}

// Breakdown returns per-provider/operation spend totals for a period.
func (g *Guard) Breakdown(ctx context.Context, period string) (map[PriceKey]float64, error) {
	g.mu.Lock()
	g.rolloverLocked()
	if period == g.period {
		out := make(map[PriceKey]float64, len(g.breakdown))
		for key, cost := range g.breakdown {
			out[key] = cost
		}
		g.mu.Unlock()
		return out, nil
	}
	g.mu.Unlock()

	records, err := g.usage.GetUsageByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	out := make(map[PriceKey]float64)
	for _, record := range records {
		out[PriceKey{Provider: record.Provider, Operation: record.Operation}] += record.Cost
	}
	return out, nil
}

// Summary returns the dashboard view of a period.
func (g *Guard) Summary(ctx context.Context, period string) (*Summary, error) {
	spend, err := g.CurrentSpend(ctx, period)
	if err != nil {
		return nil, err
	}
	breakdown, err := g.Breakdown(ctx, period)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Period:         period,
		Budget:         g.cfg.MonthlyLimit,
		CurrentSpend:   spend,
		PercentageUsed: spend / g.cfg.MonthlyLimit * 100,
		Breakdown:      breakdown,
	}, nil
}

// RecentAlerts returns the N most recent budget alerts, newest first.
func (g *Guard) RecentAlerts(ctx context.Context, limit int) ([]*core.BudgetAlert, error) {
	return g.alerts.RecentAlerts(ctx, limit)
}

// AcknowledgeAlert marks an alert as acknowledged.
func (g *Guard) AcknowledgeAlert(ctx context.Context, id core.ID) error {
	return g.alerts.AcknowledgeAlert(ctx, id)
}

// Flush blocks until every queued usage event has been processed.
func (g *Guard) Flush() {
	g.pending.Wait()
}

// Close drains the queue and stops the consumer goroutine.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	g.pending.Wait()
	close(g.queue)
	<-g.done
	return nil
}

// consume is the single goroutine applying usage events in order.
func (g *Guard) consume() {
	defer close(g.done)
	for event := range g.queue {
		g.apply(event)
		g.pending.Done()
	}
}

// apply records one usage event and runs threshold checks.
func (g *Guard) apply(event usageEvent) {
	cost := g.cfg.Cost(event.provider, event.operation, event.units)

	record := &core.UsageRecord{
		Provider:     event.provider,
		Operation:    event.operation,
		Units:        event.units,
		Cost:         cost,
		CollectionId: event.collectionID,
		CreatedAt:    event.at,
	}
	if _, err := g.usage.AddUsageRecords(context.Background(), record); err != nil {
		// Log-and-continue: the in-memory counters still advance so threshold
		// enforcement stays conservative.
		g.logger.Error("failed to persist usage record",
			"provider", event.provider, "operation", event.operation, "err", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked()

	g.spend += cost
	g.breakdown[PriceKey{Provider: event.provider, Operation: event.operation}] += cost
	g.checkThresholdsLocked()
}

// checkThresholdsLocked raises threshold alerts. Duplicate alerts of the same
// type within one period are suppressed via the warned/limited flags. The
// flags track whether an alert was ever raised this period, so acknowledging
// an alert does not re-arm it; each threshold fires at most once per period.
func (g *Guard) checkThresholdsLocked() {
	if !g.warned && g.spend >= g.cfg.WarnFraction*g.cfg.MonthlyLimit {
		g.warned = true
		g.raiseLocked(core.AlertWarning, g.cfg.WarnFraction)
	}
	if !g.limited && g.spend >= g.cfg.MonthlyLimit {
		g.limited = true
		g.raiseLocked(core.AlertLimit, 1.0)
		g.logger.Warn("budget limit reached, forcing fallback to free providers",
			"period", g.period, "spend", g.spend, "limit", g.cfg.MonthlyLimit)
	}
}

// raiseLocked persists one alert. Persistence failure is logged; the
// in-memory flag stays set so the fallback still engages.
func (g *Guard) raiseLocked(alertType core.AlertType, threshold float64) {
	alert := &core.BudgetAlert{
		Type:           alertType,
		Period:         g.period,
		Threshold:      threshold,
		SpendAtTrigger: g.spend,
		CreatedAt:      g.now().UTC(),
	}
	if _, err := g.alerts.AddAlert(context.Background(), alert); err != nil {
		g.logger.Error("failed to persist budget alert", "type", alertType, "err", err)
		return
	}
	g.logger.Info("budget alert raised",
		"type", alertType, "period", g.period, "spend", g.spend, "threshold", threshold)
}

// rolloverLocked resets counters when the calendar period has advanced.
func (g *Guard) rolloverLocked() {
	current := core.PeriodOf(g.now())
	if current != g.period {
		g.logger.Info("budget period rolled over", "from", g.period, "to", current)
		g.resetLocked(current)
	}
}

func (g *Guard) resetLocked(period string) {
	g.period = period
	g.spend = 0
	g.breakdown = make(map[PriceKey]float64)
	g.warned = false
	g.limited = false
}

// rehydrate restores this period's spend and alert flags from the store, so
// a restart cannot forget that the limit was already reached.
func (g *Guard) rehydrate() error {
	ctx := context.Background()

	records, err := g.usage.GetUsageByPeriod(ctx, g.period)
	if err != nil {
		return err
	}
	alerts, err := g.alerts.GetAlertsByPeriod(ctx, g.period)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, record := range records {
		g.spend += record.Cost
		g.breakdown[PriceKey{Provider: record.Provider, Operation: record.Operation}] += record.Cost
	}
	for _, alert := range alerts {
		switch alert.Type {
		case core.AlertWarning:
			g.warned = true
		case core.AlertLimit:
			g.limited = true
		}
	}
	return nil
}
