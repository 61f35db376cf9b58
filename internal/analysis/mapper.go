package analysis

import (
	"errors"
	"fmt"

	"pageguard/internal/llm"
	"pageguard/internal/types"
)

// ErrInvalidSeverity means the provider reported a severity outside the
// known enumeration. This is a contract violation caught eagerly rather
// than coerced, so corrupted output never pollutes a compliance report.
var ErrInvalidSeverity = errors.New("invalid discrepancy severity")

// MapDiscrepancies normalizes raw provider findings into the internal model.
// IDs are "{resultID}-d-{index}": derived from position, not content, so the
// mapping is deterministic for a given input order. Provider order is
// significant and preserved.
func MapDiscrepancies(resultID string, raw []llm.RawDiscrepancy) ([]types.Discrepancy, error) {
	mapped := make([]types.Discrepancy, 0, len(raw))
	for i, d := range raw {
		severity := types.Severity(d.Severity)
		if !severity.Valid() {
			return nil, fmt.Errorf("%w: %q at index %d", ErrInvalidSeverity, d.Severity, i)
		}
		mapped = append(mapped, types.Discrepancy{
			ID:             fmt.Sprintf("%s-d-%d", resultID, i),
			Field:          d.Field,
			ReferenceValue: d.ReferenceValue,
			FoundValue:     d.FoundValue,
			Severity:       severity,
			Description:    d.Description,
			Suggestion:     d.Suggestion,
		})
	}
	return mapped, nil
}
