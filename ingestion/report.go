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


package ingestion

import (
	"errors"
	"fmt"
)

// Report is the outcome of one ingestion run.
type Report struct {
	// Total is the number of profiles submitted.
	Total int
	// Succeeded counts profiles stored with an embedding, including degraded ones.
	Succeeded int
	// Degraded counts stored profiles with neither biography nor research topics.
	Degraded int
	// Failed counts profiles that were not stored.
	Failed int
	// Errors holds one error per failed profile or batch.
	Errors []error
}

// Err joins every recorded error, or returns nil when nothing failed.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

func (r *Report) String() string {
	return fmt.Sprintf("%d profiles: %d succeeded (%d degraded), %d failed",
		r.Total, r.Succeeded, r.Degraded, r.Failed)
}

func (r *Report) fail(n int, err error) {
	r.Failed += n
	r.Errors = append(r.Errors, err)
}
