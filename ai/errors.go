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


package ai

import "errors"

var (
	// ErrUpstreamUnavailable indicates an embedding or generation call kept failing
	// after bounded retries, or exceeded its per-call timeout.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrInvalidResponse indicates the generation service replied with output
	// that could not be decoded into the requested shape.
	ErrInvalidResponse = errors.New("invalid structured response")

	// ErrUnknownModel is returned when a model name does not match a supported model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
