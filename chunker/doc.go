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


// Package chunker splits extracted document text into bounded, overlapping
// spans for embedding and retrieval.
//
// Splitting prefers paragraph boundaries (blank lines), falls back to
// sentence boundaries for oversized paragraphs, and finally to word
// boundaries. Adjacent spans share an exact overlap region so that context
// spanning a boundary is retrievable from either side. Spans carry absolute
// character offsets into the source text for citation traceability.
package chunker
