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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidCollection indicates a Collection failed validation.
	ErrInvalidCollection = errors.New("invalid collection")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidUsageRecord indicates a UsageRecord failed validation.
	ErrInvalidUsageRecord = errors.New("invalid usage record")

	// ErrEmptyName indicates a required name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyText indicates the chunk Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidOperation indicates an invalid usage Operation value.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDimensionMismatch indicates a chunk's vector length does not match
	// the dimensionality recorded in its embedding metadata.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
