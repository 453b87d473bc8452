package model

import "time"

// AdvisoryStatus is the lifecycle state of a crop-advisory request.  The
// only transition is pending -> resolved, performed by an admin.
type AdvisoryStatus string

const (
	AdvisoryPending  AdvisoryStatus = "pending"
	AdvisoryResolved AdvisoryStatus = "resolved"
)

// AdvisoryRequest is a question a farmer raises about a crop.  It maps to
// the `advisory_requests` table.
//
// Fields:
//
//	ID         – advisory_requests.id
//	UserID     – farmer who asked
//	CropName   – crop the question is about
//	Question   – free text
//	Status     – pending or resolved
//	Response   – admin answer, empty while pending
//	ResolvedBy – admin user id (nil while pending)
//	ResolvedAt – resolution time (nil while pending)
type AdvisoryRequest struct {
	ID         uint64         `json:"id"`
	UserID     uint64         `json:"user_id"`
	CropName   string         `json:"crop_name"`
	Question   string         `json:"question"`
	Status     AdvisoryStatus `json:"status"`
	Response   string         `json:"response,omitempty"`
	ResolvedBy *uint64        `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Valid reports whether s is a known advisory status.
func (s AdvisoryStatus) Valid() bool {
	return s == AdvisoryPending || s == AdvisoryResolved
}
