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

// Package search answers queries over ingested collections.
//
// The Searcher combines two retrieval branches:
//   - Vector search: the query is embedded with the provider the collection
//     is pinned to and matched by cosine similarity.
//   - Lexical search: BM25 term scoring over stop-word-filtered tokens.
//
// In hybrid mode both branches run concurrently, their rankings are merged
// with weighted Reciprocal Rank Fusion, and scores can optionally be
// reweighted by source trust tier and document age. A failed lexical branch
// degrades the response to vector-only results; a failed vector branch fails
// the call.
package search
