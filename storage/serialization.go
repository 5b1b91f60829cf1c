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

package storage

import (
	"github.com/poiesic/quarry/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalCollection serializes a Collection to bytes.
func MarshalCollection(collection *core.Collection) []byte {
	buf := make([]byte, core.CollectionMUS.Size(*collection))
	core.CollectionMUS.Marshal(*collection, buf)
	return buf
}

// UnmarshalCollection deserializes a Collection from bytes.
func UnmarshalCollection(data []byte) (*core.Collection, error) {
	collection, _, err := core.CollectionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(document *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*document))
	core.DocumentMUS.Marshal(*document, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	document, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalUsageRecord serializes a UsageRecord to bytes.
func MarshalUsageRecord(record *core.UsageRecord) []byte {
	buf := make([]byte, core.UsageRecordMUS.Size(*record))
	core.UsageRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalUsageRecord deserializes a UsageRecord from bytes.
func UnmarshalUsageRecord(data []byte) (*core.UsageRecord, error) {
	record, _, err := core.UsageRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalBudgetAlert serializes a BudgetAlert to bytes.
func MarshalBudgetAlert(alert *core.BudgetAlert) []byte {
	buf := make([]byte, core.BudgetAlertMUS.Size(*alert))
	core.BudgetAlertMUS.Marshal(*alert, buf)
	return buf
}

// UnmarshalBudgetAlert deserializes a BudgetAlert from bytes.
func UnmarshalBudgetAlert(data []byte) (*core.BudgetAlert, error) {
	alert, _, err := core.BudgetAlertMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
