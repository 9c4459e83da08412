// internal/domain/school.go
package domain

// School is master data for the coverage denominator: every school a
// council is responsible for, whether or not it appears in any record yet.
type School struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	CouncilID string `json:"council_id" db:"council_id"`
	Type      string `json:"type" db:"school_type"`
}
