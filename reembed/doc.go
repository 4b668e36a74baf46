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


// Package reembed rebuilds the vectors of the faculty index with a different
// embedding model.
//
// Vectors from different models are not comparable, so an index is tied to
// the model recorded in its manifest. Reembedder walks every entry in
// batches, embeds the stored profile again with retry and exponential
// backoff, normalizes the vectors and writes them back. Once every batch has
// been stored the manifest is rewritten with the new model name.
package reembed
