package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact types.
const (
	ContactBuyer    = "buyer"
	ContactSeller   = "seller"
	ContactInvestor = "investor"
	ContactLandlord = "landlord"
)

// Contact is a tenant-scoped contact record.
type Contact struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	ContactType string     `json:"contact_type"`
	Source      string     `json:"source,omitempty"`
	City        string     `json:"city,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
