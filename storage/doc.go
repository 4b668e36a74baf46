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


// Package storage provides the storage abstraction layer for the faculty corpus.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. The matching pipeline only ever sees similarity search
// results; ingestion and reembedding use the full repository.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction:
//
//	repo, err := badger.NewRepository(path)  // returns storage.Store interface
//
// # Architecture
//
//   - Repository: Operations shared by every backend (similarity search, transactions)
//   - FacultyRepository: Corpus entries keyed by content-based ID with a name index
//   - ManifestRepository: The embedding model and dimensions the index was built with
//   - Store: Both of the above over one backend
//
// # Records
//
// Entries are serialized with mus-go. The document held by each entry is the
// JSON-encoded faculty profile; storage treats it as opaque text.
//
// # Usage
//
//	repo, err := badger.NewRepository("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
