package entity

import (
	"strings"
	"time"
)

// PlannedFix is a named remediation effort grouping annotations. Deleting one
// clears the link on its annotations; it never deletes them.
type PlannedFix struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	JiraTicket string    `json:"jiraTicket,omitempty"`
	Owner      string    `json:"owner,omitempty"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NormalizePlannedFix(f PlannedFix) PlannedFix {
	f.ID = strings.TrimSpace(f.ID)
	f.Name = strings.TrimSpace(f.Name)
	f.JiraTicket = strings.TrimSpace(f.JiraTicket)
	f.Owner = strings.TrimSpace(f.Owner)
	return f
}
