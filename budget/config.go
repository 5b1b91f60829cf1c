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
	"github.com/poiesic/quarry/core"
)

// PriceKey identifies one row of the static price table.
type PriceKey struct {
	Provider  string
	Operation core.Operation
}

// Config holds configuration for the budget guard.
type Config struct {
	// MonthlyLimit is the period spending ceiling in USD. Default: 20.00.
	MonthlyLimit float64

	// WarnFraction is the fraction of MonthlyLimit at which a warning alert
	// is raised. Default: 0.8.
	WarnFraction float64

	// Prices maps provider/operation to USD per 1000 units. Calls with no
	// price table entry cost nothing (free providers are simply absent).
	Prices map[PriceKey]float64

	// QueueSize is the capacity of the async usage queue. RecordUsage drops
	// (and logs) events when the queue is full. Default: 256.
	QueueSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithMonthlyLimit sets the period spending ceiling in USD.
func WithMonthlyLimit(limit float64) ConfigOption {
	return func(c *Config) { c.MonthlyLimit = limit }
}

// WithWarnFraction sets the warning threshold as a fraction of the limit.
func WithWarnFraction(fraction float64) ConfigOption {
	return func(c *Config) { c.WarnFraction = fraction }
}

// WithPrice sets the price for one provider/operation in USD per 1000 units.
func WithPrice(provider string, operation core.Operation, perThousand float64) ConfigOption {
	return func(c *Config) {
		c.Prices[PriceKey{Provider: provider, Operation: operation}] = perThousand
	}
}

// WithQueueSize sets the async usage queue capacity.
func WithQueueSize(size int) ConfigOption {
	return func(c *Config) { c.QueueSize = size }
}

// DefaultConfig returns a Config with the production price table.
// Prices are USD per 1000 estimated tokens; the local provider is free and
// therefore has no entry.
func DefaultConfig() *Config {
	return &Config{
		MonthlyLimit: 20.00,
		WarnFraction: 0.8,
		Prices: map[PriceKey]float64{
			{Provider: "docs", Operation: core.OpEmbed}:    0.00002,
			{Provider: "code", Operation: core.OpEmbed}:    0.00002,
			{Provider: "writing", Operation: core.OpEmbed}: 0.00002,
			{Provider: "docs", Operation: core.OpRerank}:   0.00005,
		},
		QueueSize: 256,
	}
}

// NewConfig creates a Config with defaults and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.MonthlyLimit <= 0 {
		return ErrInvalidLimit
	}
	if c.WarnFraction <= 0 || c.WarnFraction >= 1 {
		return ErrInvalidWarnFraction
	}
	if c.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	return nil
}

// Cost computes the USD cost of a call from the price table.
// Unknown provider/operation pairs cost zero.
func (c *Config) Cost(provider string, operation core.Operation, units int) float64 {
	perThousand := c.Prices[PriceKey{Provider: provider, Operation: operation}]
	return perThousand * float64(units) / 1000.0
}
