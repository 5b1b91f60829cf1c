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

// Package ingestion turns registered documents into searchable chunks.
//
// The Pipeline walks each document through chunking, provider routing and
// concurrent batch embedding, persisting a status at every stage boundary so
// failures are observable in the document record rather than only in logs.
// Collections are pinned to the provider of their first completed document;
// every later document in the collection reuses it so query-time embeddings
// stay in the same vector space.
package ingestion
