package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func completeRecord() FormRecord {
	return FormRecord{
		ProjectName:    "ประชุมวิชาการ 2569",
		FullName:       "สมชาย ใจดี",
		AttendanceType: AttendanceOnsite,
		IsCertified:    true,
		SignatureData:  samplePNG,
	}
}

func TestFormRecord_ReadyForReview_AllCombinations(t *testing.T) {
	// Every subset of the five gate fields: ready only when all are present.
	for mask := 0; mask < 32; mask++ {
		r := FormRecord{}
		if mask&1 != 0 {
			r.FullName = "สมชาย ใจดี"
		}
		if mask&2 != 0 {
			r.ProjectName = "ประชุมวิชาการ 2569"
		}
		if mask&4 != 0 {
			r.AttendanceType = AttendanceRerun
		}
		if mask&8 != 0 {
			r.IsCertified = true
		}
		if mask&16 != 0 {
			r.SignatureData = samplePNG
		}

		assert.Equal(t, mask == 31, r.ReadyForReview(), "mask %05b", mask)
	}
}

func TestFormRecord_ReadyForReview_Scenarios(t *testing.T) {
	r := completeRecord()
	assert.True(t, r.ReadyForReview())
	assert.Equal(t, "ใบตอบรับ_สมชาย ใจดี.pdf", r.DispatchFileName())

	r.SignatureData = ""
	assert.False(t, r.ReadyForReview())
}

func TestFormRecord_ReadyForReview_IgnoresFeeFields(t *testing.T) {
	r := completeRecord()
	r.FeeAcknowledged = false
	r.FeePaid = false
	r.PaymentSlip = ""
	assert.True(t, r.ReadyForReview())
}

func TestFormRecord_With(t *testing.T) {
	base := NewFormRecord(EventDefaults{ProjectName: "P", Organizer: "O"}, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))

	t.Run("replaces one string field", func(t *testing.T) {
		got, err := base.With(FieldFullName, "สมชาย ใจดี")
		require.NoError(t, err)
		assert.Equal(t, "สมชาย ใจดี", got.FullName)
		assert.Equal(t, "", base.FullName, "original must not change")

		want := base
		want.FullName = "สมชาย ใจดี"
		assert.Equal(t, want, got)
	})

	t.Run("replaces a boolean field", func(t *testing.T) {
		got, err := base.With(FieldIsCertified, true)
		require.NoError(t, err)
		assert.True(t, got.IsCertified)
	})

	t.Run("accepts attendance type", func(t *testing.T) {
		got, err := base.With(FieldAttendanceType, AttendanceRerun)
		require.NoError(t, err)
		assert.Equal(t, AttendanceRerun, got.AttendanceType)
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		got, err := base.With("nickname", "x")
		assert.True(t, errors.Is(err, ErrUnknownField))
		assert.Equal(t, base, got)
	})

	t.Run("rejects wrong kind", func(t *testing.T) {
		_, err := base.With(FieldIsCertified, "yes")
		assert.True(t, errors.Is(err, ErrInvalidValue))

		_, err = base.With(FieldFullName, 42)
		assert.True(t, errors.Is(err, ErrInvalidValue))
	})

	t.Run("last write wins", func(t *testing.T) {
		r, _ := base.With(FieldPhone, "081")
		r, _ = r.With(FieldPhone, "082")
		assert.Equal(t, "082", r.Phone)
	})
}

func TestNewFormRecord(t *testing.T) {
	r := NewFormRecord(EventDefaults{
		ProjectName: "โครงการ",
		EventDate:   "2-3 กรกฎาคม 2569",
		Location:    "ห้องประชุม",
		Organizer:   "ภาควิชา",
	}, time.Date(2026, 7, 2, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, "2/7/2569", r.SubmissionDate)
	assert.Equal(t, "โครงการ", r.ProjectName)
	assert.Empty(t, r.FullName)
	assert.Equal(t, AttendanceUnset, r.AttendanceType)
	assert.False(t, r.ReadyForReview())
}

func TestAttendanceType_IsValid(t *testing.T) {
	tests := []struct {
		value AttendanceType
		want  bool
	}{
		{AttendanceUnset, true},
		{AttendanceOnsite, true},
		{AttendanceRerun, true},
		{AttendanceType("Online"), false},
	}

	for _, tt := range tests {
		if got := tt.value.IsValid(); got != tt.want {
			t.Errorf("AttendanceType(%q).IsValid() = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestDownloadFileName(t *testing.T) {
	assert.Equal(t, "แบบตอบรับ_โครงการ.pdf", FormRecord{}.DownloadFileName())
	assert.Equal(t, "แบบตอบรับ_สมชาย ใจดี.pdf", completeRecord().DownloadFileName())
}
