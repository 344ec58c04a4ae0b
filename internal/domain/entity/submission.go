package entity

import "time"

// Submission is one dispatch log row: a form that reached the organizer
type Submission struct {
	ID             int64          `json:"id"`
	SessionID      string         `json:"session_id"`
	FullName       string         `json:"full_name"`
	ProjectName    string         `json:"project_name"`
	AttendanceType AttendanceType `json:"attendance_type"`
	Provider       string         `json:"provider"`
	FileName       string         `json:"file_name"`
	CreatedAt      time.Time      `json:"created_at"`
}
