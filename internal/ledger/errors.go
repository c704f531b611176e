package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nileshindira/trading-persona/internal/types"
)

// ValidationError reports required columns missing from an input. The
// input is not processed further.
type ValidationError struct {
	Kind    types.LedgerKind
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required columns for %s input: %s", strings.ToLower(string(e.Kind)), strings.Join(e.Missing, ", "))
}

// DataQualityWarning summarises rows dropped during normalization.
type DataQualityWarning struct {
	Dropped int
	Total   int
	Reasons map[string]int
}

func (w *DataQualityWarning) add(reason string) {
	if w.Reasons == nil {
		w.Reasons = map[string]int{}
	}
	w.Reasons[reason]++
	w.Dropped++
}

func (w *DataQualityWarning) String() string {
	keys := make([]string, 0, len(w.Reasons))
	for k := range w.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, w.Reasons[k]))
	}
	return fmt.Sprintf("dropped %d of %d rows (%s)", w.Dropped, w.Total, strings.Join(parts, ", "))
}
