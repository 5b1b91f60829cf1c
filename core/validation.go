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

import "fmt"

// ValidateCollection validates a Collection according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//
// NOT validated:
//   - ID (0 is valid from database sequences)
func ValidateCollection(collection *Collection) error {
	if collection == nil {
		return fmt.Errorf("%w: collection is nil", ErrInvalidCollection)
	}
	if collection.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, ErrEmptyName)
	}
	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - CollectionId must be set
//   - Title must not be empty
//   - Status must be a known status value
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (empty until the embedding stage runs)
//   - Error (only meaningful for StatusError)
func ValidateDocument(document *Document) error {
	if document == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if document.CollectionId == 0 {
		return fmt.Errorf("%w: collection id required", ErrInvalidDocument)
	}
	if document.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyName)
	}
	if err := ValidateStatus(document.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - Text must not be empty
//   - Position must be non-negative
//   - If a vector is present, its length must match Embedding.Dimensions
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidChunk)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}
	if chunk.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidChunk, chunk.Position)
	}
	if len(chunk.Vector) > 0 && len(chunk.Vector) != chunk.Embedding.Dimensions {
		return fmt.Errorf("%w: %w: vector has %d values, metadata declares %d",
			ErrInvalidChunk, ErrDimensionMismatch, len(chunk.Vector), chunk.Embedding.Dimensions)
	}
	return nil
}

// ValidateUsageRecord validates a UsageRecord according to domain rules.
func ValidateUsageRecord(record *UsageRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidUsageRecord)
	}
	if record.Provider == "" {
		return fmt.Errorf("%w: provider required", ErrInvalidUsageRecord)
	}
	if err := ValidateOperation(record.Operation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUsageRecord, err)
	}
	if record.Units < 0 {
		return fmt.Errorf("%w: negative units %d", ErrInvalidUsageRecord, record.Units)
	}
	return nil
}

// ValidateStatus validates that a DocumentStatus has a known value.
func ValidateStatus(status DocumentStatus) error {
	if status < StatusPending || status > StatusError {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// ValidateOperation validates that an Operation has a known value.
func ValidateOperation(op Operation) error {
	switch op {
	case OpEmbed, OpRerank, OpCompletion:
		return nil
	default:
		return fmt.Errorf("%w: value %q", ErrInvalidOperation, op)
	}
}
