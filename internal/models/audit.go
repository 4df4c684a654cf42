package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an append-only audit row. PublishedAt is set once the
// outbox relay has pushed the entry to subscribers.
type ActivityLog struct {
	ID             uuid.UUID       `json:"id"`
	Action         string          `json:"action"`
	ActorEmail     string          `json:"actor_email"`
	ModuleType     string          `json:"module_type"`
	ReferenceID    string          `json:"reference_id"`
	Status         *string         `json:"status,omitempty"`
	PreviousStatus *string         `json:"previous_status,omitempty"`
	DetailsJSON    json.RawMessage `json:"details_json,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
}

// Activity actions
const (
	ActionCustomerCreated     = "Customer Created"
	ActionCustomerUpdated     = "Customer Updated"
	ActionProjectCreated      = "Project Created"
	ActionProjectUpdated      = "Project Updated"
	ActionStatusChanged       = "Status Changed"
	ActionTimeLogCreated      = "Time Log Created"
	ActionTimeLogDeleted      = "Time Log Deleted"
	ActionReceiptCreated      = "Materials Receipt Created"
	ActionAttachmentUploaded  = "Receipt Attachment Uploaded"
	ActionSubInvoiceCreated   = "Sub Invoice Created"
	ActionEstimateCreated     = "Estimate Created"
	ActionEmployeeCreated     = "Employee Created"
	ActionEmployeeUpdated     = "Employee Updated"
	ActionEmployeeDeactivated = "Employee Deactivated"
	ActionVendorCreated       = "Vendor Created"
	ActionVendorUpdated       = "Vendor Updated"
	ActionVendorDeactivated   = "Vendor Deactivated"
)
