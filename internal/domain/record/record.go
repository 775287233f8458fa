// Package record holds the vocabulary shared by the evaluation, test result
// and judgement domains: record kinds and the sentinel errors every
// repository and service wraps.
package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrExists          = errors.New("record already exists")
	ErrForbidden       = errors.New("record belongs to another user")
	ErrInvalid         = errors.New("invalid record")
	ErrUnsupportedKind = errors.New("unsupported record type")
)

// Kind identifies one of the stored record types.
type Kind string

const (
	KindEvaluation Kind = "Evaluation"
	KindTestResult Kind = "TestResult"
	KindJudgement  Kind = "Judgement"
)

// Kinds lists every supported record kind.
func Kinds() []Kind {
	return []Kind{KindEvaluation, KindTestResult, KindJudgement}
}

// ParseKind accepts the canonical kind names in any case as well as the
// plural forms used in URLs.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "evaluation", "evaluations":
		return KindEvaluation, nil
	case "testresult", "testresults", "test-result", "test-results", "test_result", "test_results":
		return KindTestResult, nil
	case "judgement", "judgements":
		return KindJudgement, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, raw)
}

// Key returns the composite storage key for a record, e.g. "Evaluation-eval_001".
func Key(kind Kind, id string) string {
	return string(kind) + "-" + id
}

// Required returns an ErrInvalid-wrapped error naming the missing field.
func Required(field string) error {
	return fmt.Errorf("%w: %s is required", ErrInvalid, field)
}
