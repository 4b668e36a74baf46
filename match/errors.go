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


package match

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrInvalidBatchSize is returned when a batch size below 1 is requested.
	ErrInvalidBatchSize = errors.New("batch size must be greater than 0")

	// ErrUnknownPolicy is returned when a failure policy name is not recognized.
	ErrUnknownPolicy = errors.New("unknown failure policy")
)

// Stage names a step of the matching pipeline.
type Stage string

const (
	StageExtractKeywords  Stage = "extract-keywords"
	StageGenerateVariants Stage = "generate-variants"
	StageRetrieve         Stage = "retrieve"
	StageAggregate        Stage = "aggregate"
	StageVerify           Stage = "verify"
)

// StageError reports which pipeline stage failed. The whole request can be
// retried; no partial result accompanies a StageError.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// FailurePolicy decides what a failed verification batch does to the run.
type FailurePolicy int

const (
	// FailFast aborts the run on the first failed batch.
	FailFast FailurePolicy = iota
	// BestEffort leaves the candidates of a failed batch unjudged and carries on.
	BestEffort
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail-fast"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseFailurePolicy maps "fail-fast" or "best-effort" onto a FailurePolicy.
func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch name {
	case "fail-fast", "failfast", "":
		return FailFast, nil
	case "best-effort", "besteffort":
		return BestEffort, nil
	default:
		return FailFast, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
