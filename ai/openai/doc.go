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

// Package openai implements ai.EmbeddingClient over OpenAI-compatible
// embeddings APIs using the langchaingo library.
//
// All four providers (the local Ollama-style fallback and the hosted
// docs/code/writing backends) speak the same wire protocol, so a single
// Embedder type parameterized by ai.ProviderSpec covers the whole set.
//
// # Usage
//
//	cfg := ai.DefaultConfig()
//	registry, err := openai.NewRegistry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer registry.Close()
//
//	client, _ := registry.Client(ai.ProviderDocs)
//	vectors, err := client.Embed(ctx, []string{"sample text"})
package openai
