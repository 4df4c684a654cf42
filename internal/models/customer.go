package models

import "time"

type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address,omitempty"`
	City           *string   `json:"city,omitempty"`
	State          *string   `json:"state,omitempty"`
	Zip            *string   `json:"zip,omitempty"`
	ContactEmail   *string   `json:"contact_email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastModifiedBy *string   `json:"last_modified_by,omitempty"`
}
