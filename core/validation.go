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

import (
	"fmt"
	"strings"
)

// ValidateThesis validates user input before a pipeline run.
//
// Validation rules:
//   - Title must be non-blank
//
// Abstract and keywords are optional.
func ValidateThesis(thesis *Thesis) error {
	if thesis == nil {
		return fmt.Errorf("%w: thesis is nil", ErrInvalidThesis)
	}
	if strings.TrimSpace(thesis.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThesis, ErrEmptyTitle)
	}
	return nil
}

// ValidateProfile validates a FacultyProfile before it is indexed.
func ValidateProfile(profile *FacultyProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyName)
	}
	return nil
}
