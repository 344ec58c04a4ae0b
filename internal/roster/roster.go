// Package roster renders the dispatch log as a spreadsheet for the organizer.
package roster

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/event-regform/internal/domain/entity"
)

// SheetName is the name of the only sheet in the workbook
const SheetName = "ผู้ตอบรับ"

// MediaType is the media type of the workbook
const MediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []string{"ลำดับ", "ชื่อ-นามสกุล", "โครงการ", "รูปแบบการเข้าร่วม", "ช่องทางการส่ง", "ไฟล์", "วันที่ส่ง"}

var columnWidths = map[string]float64{
	"A": 8, "B": 28, "C": 32, "D": 18, "E": 16, "F": 36, "G": 20,
}

// Builder writes roster workbooks
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a roster builder
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Write renders submissions, in the given order, as an xlsx workbook to w
func (b *Builder) Write(w io.Writer, submissions []*entity.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			b.logger.Warn("Failed to set column width", zap.String("column", col), zap.Error(err))
		}
	}

	for i, s := range submissions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1,
			s.FullName,
			s.ProjectName,
			string(s.AttendanceType),
			s.Provider,
			s.FileName,
			entity.FormatThaiDate(s.CreatedAt) + " " + s.CreatedAt.Format("15:04"),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		b.logger.Warn("Failed to freeze header row", zap.Error(err))
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	b.logger.Info("Roster written", zap.Int("rows", len(submissions)))
	return nil
}
