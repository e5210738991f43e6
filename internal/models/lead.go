package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadLost      = "lost"
	LeadConverted = "converted"
)

// Lead is a tenant-scoped sales lead. Converting a lead creates a contact
// and marks the lead converted.
type Lead struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Source       string     `json:"source,omitempty"`
	Status       string     `json:"status"`
	Budget       *int64     `json:"budget,omitempty"`
	Requirements string     `json:"requirements,omitempty"`
	Priority     string     `json:"priority,omitempty"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	ContactID    *uuid.UUID `json:"contact_id,omitempty"` // set on conversion
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
