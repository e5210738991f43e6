package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline groups ordered stages for a tenant (e.g. Sales, Rentals).
type Pipeline struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stage is an ordered step within a pipeline.
type Stage struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PipelineID uuid.UUID `json:"pipeline_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Position   int       `json:"position"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Deal is a tenant-scoped deal moving through pipeline stages.
type Deal struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	Title             string     `json:"title"`
	PipelineID        uuid.UUID  `json:"pipeline_id"`
	StageID           uuid.UUID  `json:"stage_id"`
	PropertyID        *uuid.UUID `json:"property_id,omitempty"`
	ContactID         *uuid.UUID `json:"contact_id,omitempty"`
	Value             int64      `json:"value"`
	Probability       int        `json:"probability"`
	Position          int        `json:"position"`
	AssignedTo        *uuid.UUID `json:"assigned_to,omitempty"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
