package entity

import (
	"errors"
	"fmt"
	"time"
)

// AttendanceType is the attendance mode selected by the respondent
type AttendanceType string

const (
	AttendanceUnset  AttendanceType = ""
	AttendanceOnsite AttendanceType = "Onsite"
	AttendanceRerun  AttendanceType = "Rerun"
)

// IsValid reports whether the value is unset or one of the defined modes
func (a AttendanceType) IsValid() bool {
	switch a {
	case AttendanceUnset, AttendanceOnsite, AttendanceRerun:
		return true
	}
	return false
}

// Field names accepted by FormRecord.With
const (
	FieldProjectName     = "projectName"
	FieldEventDate       = "eventDate"
	FieldLocation        = "location"
	FieldOrganizer       = "organizer"
	FieldFullName        = "fullName"
	FieldPosition        = "position"
	FieldDepartment      = "department"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldAttendanceType  = "attendanceType"
	FieldFeeAcknowledged = "feeAcknowledged"
	FieldFeePaid         = "feePaid"
	FieldPaymentSlip     = "paymentSlip"
	FieldSignatureData   = "signatureData"
	FieldIsCertified     = "isCertified"
)

var (
	// ErrUnknownField is returned when an update names a field the record does not have
	ErrUnknownField = errors.New("unknown form field")

	// ErrInvalidValue is returned when an update carries a value of the wrong kind
	ErrInvalidValue = errors.New("invalid field value")
)

// FormRecord is the single registration record of one session
type FormRecord struct {
	// Identity/context, fixed at session start
	ProjectName string `json:"projectName" yaml:"projectName"`
	EventDate   string `json:"eventDate" yaml:"eventDate"`
	Location    string `json:"location" yaml:"location"`
	Organizer   string `json:"organizer" yaml:"organizer"`

	// Respondent
	FullName       string         `json:"fullName" yaml:"fullName"`
	Position       string         `json:"position" yaml:"position"`
	Department     string         `json:"department" yaml:"department"`
	Phone          string         `json:"phone" yaml:"phone"`
	Email          string         `json:"email" yaml:"email"`
	AttendanceType AttendanceType `json:"attendanceType" yaml:"attendanceType"`

	// Consent and compliance. The fee fields gate nothing.
	FeeAcknowledged bool   `json:"feeAcknowledged" yaml:"feeAcknowledged"`
	FeePaid         bool   `json:"feePaid" yaml:"feePaid"`
	PaymentSlip     string `json:"paymentSlip" yaml:"paymentSlip"` // data URL
	IsCertified     bool   `json:"isCertified" yaml:"isCertified"`

	// SignatureData is a PNG data URL of the last completed stroke, or empty
	SignatureData string `json:"signatureData" yaml:"signatureData"`

	SubmissionDate string `json:"submissionDate" yaml:"submissionDate"`
}

// EventDefaults are the identity fields every new record starts with
type EventDefaults struct {
	ProjectName string
	EventDate   string
	Location    string
	Organizer   string
}

// NewFormRecord creates an empty record for a new session.
// The submission date is captured once here and never re-derived.
func NewFormRecord(defaults EventDefaults, now time.Time) FormRecord {
	return FormRecord{
		ProjectName:    defaults.ProjectName,
		EventDate:      defaults.EventDate,
		Location:       defaults.Location,
		Organizer:      defaults.Organizer,
		SubmissionDate: FormatThaiDate(now),
	}
}

// FormatThaiDate formats a date the way th-TH locales print it: d/m/yyyy in the Buddhist era
func FormatThaiDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()+543)
}

// ReadyForReview is the completeness gate: the user may leave data entry only when
// full name, project name, attendance type, certification and signature are all present.
func (r FormRecord) ReadyForReview() bool {
	return r.FullName != "" &&
		r.ProjectName != "" &&
		r.AttendanceType != AttendanceUnset &&
		r.IsCertified &&
		r.SignatureData != ""
}

// With returns a copy of the record with one field replaced.
// No validation beyond the value kind is done here.
func (r FormRecord) With(field string, value interface{}) (FormRecord, error) {
	switch field {
	case FieldFeeAcknowledged, FieldFeePaid, FieldIsCertified:
		b, ok := value.(bool)
		if !ok {
			return r, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, field, value)
		}
		switch field {
		case FieldFeeAcknowledged:
			r.FeeAcknowledged = b
		case FieldFeePaid:
			r.FeePaid = b
		default:
			r.IsCertified = b
		}
		return r, nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case AttendanceType:
		s = string(v)
	default:
		return r, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, field, value)
	}

	switch field {
	case FieldProjectName:
		r.ProjectName = s
	case FieldEventDate:
		r.EventDate = s
	case FieldLocation:
		r.Location = s
	case FieldOrganizer:
		r.Organizer = s
	case FieldFullName:
		r.FullName = s
	case FieldPosition:
		r.Position = s
	case FieldDepartment:
		r.Department = s
	case FieldPhone:
		r.Phone = s
	case FieldEmail:
		r.Email = s
	case FieldAttendanceType:
		r.AttendanceType = AttendanceType(s)
	case FieldPaymentSlip:
		r.PaymentSlip = s
	case FieldSignatureData:
		r.SignatureData = s
	default:
		return r, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return r, nil
}

// DispatchFileName is the name of the PDF attached when the form is sent
func (r FormRecord) DispatchFileName() string {
	return "ใบตอบรับ_" + r.FullName + ".pdf"
}

// DownloadFileName is the name used by the stand-alone download action
func (r FormRecord) DownloadFileName() string {
	name := r.FullName
	if name == "" {
		name = "โครงการ"
	}
	return "แบบตอบรับ_" + name + ".pdf"
}
