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

import "errors"

var (
	// ErrInvalidLimit is returned when the monthly limit is not positive.
	ErrInvalidLimit = errors.New("monthly limit must be positive")

	// ErrInvalidWarnFraction is returned when the warning fraction is outside (0, 1).
	ErrInvalidWarnFraction = errors.New("warn fraction must be between 0 and 1")

	// ErrInvalidQueueSize is returned when the usage queue size is not positive.
	ErrInvalidQueueSize = errors.New("queue size must be positive")

	// ErrGuardClosed is returned when recording usage after Close.
	ErrGuardClosed = errors.New("budget guard is closed")

	// ErrRepositoryRequired is returned when a guard is built without its
	// usage or alert repository.
	ErrRepositoryRequired = errors.New("usage and alert repositories required")
)
