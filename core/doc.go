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


// Package core defines the domain model of the knowledge base: collections,
// documents, chunks, usage records and budget alerts, together with their
// validation rules and binary serializers.
//
// The types here are storage- and transport-agnostic. Repositories in the
// storage package persist them, the ingestion package mutates document state
// as the pipeline advances, and the search package returns them as results.
package core
