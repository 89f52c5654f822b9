package domain

// ScheduleRequest is the transport-neutral form of a schedule command,
// as received by the REST API.
type ScheduleRequest struct {
	Date      string `json:"date" form:"date"` // YYYY-MM-DD
	Time      string `json:"time" form:"time"` // HH:MM
	Type      Kind   `json:"type" form:"type"`
	Content   string `json:"content" form:"content"`
	Caption   string `json:"caption" form:"caption"`
	CreatedBy string `json:"created_by" form:"created_by"`
}
