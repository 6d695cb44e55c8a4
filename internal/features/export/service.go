package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"go-stationwatch/internal/features/report"

	"github.com/xuri/excelize/v2"
)

var columns = []string{
	"ID", "City", "Station", "Category", "Urgency", "Status",
	"Description", "Created", "Created By", "Latitude", "Longitude",
}

// ExportService writes a derived view to a portable file format. It operates
// on an already-derived sequence and performs no I/O of its own.
type ExportService interface {
	ExportReports(reports []report.Report, format string, filename string) ([]byte, string, error)
}

type ExportServiceImpl struct{}

func NewExportService() ExportService {
	return &ExportServiceImpl{}
}

func (s *ExportServiceImpl) ExportReports(reports []report.Report, format string, filename string) ([]byte, string, error) {
	switch format {
	case "xlsx":
		return s.exportToExcel(reports, filename)
	case "csv":
		return s.exportToCSV(reports, filename)
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func (s *ExportServiceImpl) exportToExcel(reports []report.Report, filename string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reports"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rep := range reports {
		for colIdx, value := range rowValues(rep) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 15)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	if !strings.HasSuffix(filename, ".xlsx") {
		filename += ".xlsx"
	}
	return buffer.Bytes(), filename, nil
}

func (s *ExportServiceImpl) exportToCSV(reports []report.Report, filename string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, "", err
	}
	for _, rep := range reports {
		if err := w.Write(rowValues(rep)); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	if !strings.HasSuffix(filename, ".csv") {
		filename += ".csv"
	}
	return buf.Bytes(), filename, nil
}

func rowValues(r report.Report) []string {
	return []string{
		r.ID,
		r.StationCity,
		r.StationName,
		r.IssueCategory,
		string(r.UrgencyLevel),
		string(r.Status),
		r.Description,
		r.CreatedDate,
		r.CreatedBy,
		formatCoord(r.Latitude),
		formatCoord(r.Longitude),
	}
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
