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


package core

import "errors"

// Domain errors
var (
	// ErrInvalidThesis indicates a Thesis failed validation.
	ErrInvalidThesis = errors.New("invalid thesis")

	// ErrEmptyTitle indicates the thesis title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidProfile indicates a FacultyProfile failed validation.
	ErrInvalidProfile = errors.New("invalid faculty profile")

	// ErrEmptyName indicates the profile Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrMalformedRecord indicates a stored record could not be parsed into a candidate.
	ErrMalformedRecord = errors.New("malformed faculty record")
)
