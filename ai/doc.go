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

// Package ai defines the embedding provider abstraction and the router that
// picks a provider per piece of content.
//
// Providers form a small closed set (local, docs, code, writing) behind the
// EmbeddingClient interface. The Router applies a fixed priority policy —
// budget fallback, code heuristics, personal-writing hints, documentation
// default — and is deterministic given its inputs plus the budget state, so
// a query is always embedded with the same provider its target collection
// was indexed with.
package ai
