package entity

import "time"

// LeadEvent é uma mudança de lead enviada pelo webhook de saída do CRM.
type LeadEvent struct {
	Event        string    `json:"event"`
	LeadID       int64     `json:"lead_id"`
	StatusID     string    `json:"status_id"`
	AssignedByID string    `json:"assigned_by_id"`
	ModifiedAt   time.Time `json:"modified_at"`
	CreatedAt    time.Time `json:"created_at"`
}
