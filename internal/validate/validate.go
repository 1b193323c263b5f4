// Package validate checks raw upload records against the lead schema and
// partitions uploads into valid and invalid sets.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outbound-cli/internal/model"
)

// RequiredFields are the record fields a row must carry to become a Lead.
var RequiredFields = []string{"firstName", "lastName", "email", "company", "title"}

// emailPattern is deliberately loose: non-whitespace local part, @, and a
// dot somewhere in the domain. Deliverability checks are not our job.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckRecord returns one violation per missing required field, plus an
// email-format violation when an email is present but malformed. An empty
// result means the record is valid. "name" satisfies "firstName" (legacy
// upload templates used a single name column).
func CheckRecord(rec map[string]string) []string {
	var errs []string
	for _, field := range RequiredFields {
		v := strings.TrimSpace(rec[field])
		if field == "firstName" && v == "" {
			v = strings.TrimSpace(rec["name"])
		}
		if v == "" {
			errs = append(errs, fmt.Sprintf("Missing required field: %s", field))
		}
	}
	if email := strings.TrimSpace(rec["email"]); email != "" && !ValidEmail(email) {
		errs = append(errs, "Invalid email format")
	}
	return errs
}

// ErrBatchTooLarge is returned when an upload exceeds the row cap.
var ErrBatchTooLarge = eris.New("validate: batch size limit exceeded")

// Partition validates every record and splits them into leads and row errors,
// preserving the original row index. maxRows <= 0 disables the cap; when the
// cap is exceeded the whole batch is rejected before any per-row validation.
func Partition(records []map[string]string, maxRows int) ([]model.Lead, []model.RowError, error) {
	if maxRows > 0 && len(records) > maxRows {
		return nil, nil, eris.Wrap(ErrBatchTooLarge, fmt.Sprintf("%d rows (max %d)", len(records), maxRows))
	}

	var valid []model.Lead
	var invalid []model.RowError
	for i, rec := range records {
		errs := CheckRecord(rec)
		if len(errs) > 0 {
			invalid = append(invalid, model.RowError{
				Record: rec,
				Errors: errs,
				Index:  i,
				// +2: one for the header row, one for 1-based display, so
				// the number matches what the user sees in a spreadsheet.
				Row: i + 2,
			})
			continue
		}
		valid = append(valid, toLead(rec))
	}
	return valid, invalid, nil
}

// toLead promotes a validated record into the canonical Lead shape.
func toLead(rec map[string]string) model.Lead {
	first := strings.TrimSpace(rec["firstName"])
	if first == "" {
		first = strings.TrimSpace(rec["name"])
	}
	return model.Lead{
		ID:          uuid.NewString(),
		FirstName:   first,
		LastName:    strings.TrimSpace(rec["lastName"]),
		Email:       strings.TrimSpace(rec["email"]),
		Company:     strings.TrimSpace(rec["company"]),
		Title:       strings.TrimSpace(rec["title"]),
		Phone:       strings.TrimSpace(rec["phone"]),
		Website:     strings.TrimSpace(rec["website"]),
		Industry:    strings.TrimSpace(rec["industry"]),
		CompanySize: strings.TrimSpace(rec["companySize"]),
		Location:    strings.TrimSpace(rec["location"]),
	}
}
