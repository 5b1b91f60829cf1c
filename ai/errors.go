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


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned when a provider name is not registered.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyBatch is returned when Embed is called with no texts.
	ErrEmptyBatch = errors.New("embedding batch is empty")

	// ErrBatchTooLarge is returned when a batch exceeds the provider limit.
	ErrBatchTooLarge = errors.New("embedding batch exceeds provider limit")

	// ErrInvalidMaxAttempts is returned when a retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrBudgetGuardRequired is returned when a router is built without a
	// fallback policy.
	ErrBudgetGuardRequired = errors.New("budget guard required")

	// ErrDimensionMismatch is returned when a backend produces vectors of a
	// different length than its declared dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ProviderError wraps a failure from an external embedding backend after
// retries are exhausted. Callers can catch it and substitute the free local
// provider for the same content class.
type ProviderError struct {
	Provider ProviderName
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
