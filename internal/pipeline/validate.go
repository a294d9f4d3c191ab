// Package pipeline turns raw collector output into canonical records and
// drives them through the artifact sinks. Validation and record building are
// pure; the Runner owns all side effects.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

// MissingFieldsError reports the mandatory identity fields a raw record
// lacks. Incompleteness is a source-data defect, not a transient fault: the
// record is dropped, never retried.
type MissingFieldsError struct {
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("raw record missing mandatory fields: %s", strings.Join(e.Missing, ", "))
}

// Validate checks the mandatory raw fields and returns the unchanged record
// coupled with nil, or a MissingFieldsError naming every absent field.
// Invalid records must never reach Build.
func Validate(raw *model.RawRecord) error {
	if missing := raw.MissingFields(); len(missing) > 0 {
		return &MissingFieldsError{Missing: missing}
	}
	return nil
}
