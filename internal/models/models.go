package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a member of the lab staff. Users are provisioned out of band
// (cmd/createuser); the intake core only reads them to attribute actions
// and to resolve analysts.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Client is an organisation that submits samples to the lab.
//
// Clients are referenced by samples with a restricting foreign key, so a
// client that has ever submitted a sample can be deactivated but not deleted.
type Client struct {
	ID          uuid.UUID  `json:"id"`
	CompanyName string     `json:"company_name"`
	TaxID       string     `json:"tax_id"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	ContactName string     `json:"contact_name"`
	ContactRole string     `json:"contact_role"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Kind        ClientKind `json:"kind"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Sample is a physical specimen received by the lab.
//
// Code is assigned once at creation and never rewritten. State only moves
// through the service's state machine, and every committed move has exactly
// one matching HistoryEntry.
type Sample struct {
	ID         uuid.UUID `json:"id"`
	Code       string    `json:"code"`
	ClientID   uuid.UUID `json:"client_id"`
	ReceivedBy uuid.UUID `json:"received_by"`

	Type        SampleType      `json:"type"`
	Matrix      string          `json:"matrix"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Lot         string          `json:"lot"`

	SampledAt        time.Time        `json:"sampled_at"`
	SampledBy        string           `json:"sampled_by"`
	ShippedAt        time.Time        `json:"shipped_at"`
	DeliveryMethod   DeliveryMethod   `json:"delivery_method"`
	ReceiptCondition ReceiptCondition `json:"receipt_condition"`
	ReceiptNotes     string           `json:"receipt_notes"`
	StorageCondition StorageCondition `json:"storage_condition"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	ClientSignature  string           `json:"client_signature"`
	PlatformVersion  string           `json:"platform_version"`

	State      SampleState `json:"state"`
	Accepted   bool        `json:"accepted"`
	AcceptedAt *time.Time  `json:"accepted_at"`
	AcceptedBy *uuid.UUID  `json:"accepted_by"`

	RegisteredAt time.Time `json:"registered_at"`
	ReceivedAt   time.Time `json:"received_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Assay is one requested analysis on a sample. Assays are owned by their
// sample and are deleted with it.
type Assay struct {
	ID           uuid.UUID   `json:"id"`
	SampleID     uuid.UUID   `json:"sample_id"`
	AnalysisName string      `json:"analysis_name"`
	Method       string      `json:"method"`
	Priority     Priority    `json:"priority"`
	ResultsDueBy time.Time   `json:"results_due_by"`
	Status       AssayStatus `json:"status"`
	AnalystID    *uuid.UUID  `json:"analyst_id"`
	StartedAt    *time.Time  `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at"`
	Results      string      `json:"results"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HistoryEntry records one sample state transition. Rows are append-only.
//
// ID is a bigserial like the other high-volume, naturally ordered tables:
// a higher ID is a later entry, which breaks ties between entries written
// within the same clock tick.
type HistoryEntry struct {
	ID            int64       `json:"id"`
	SampleID      uuid.UUID   `json:"sample_id"`
	PreviousState SampleState `json:"previous_state"`
	NewState      SampleState `json:"new_state"`
	ActorID       uuid.UUID   `json:"actor_id"`
	ChangedAt     time.Time   `json:"changed_at"`
	Notes         string      `json:"notes"`
}
