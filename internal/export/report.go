// Package export renders ledger reports as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"lunysse-scheduler/internal/ledger"
)

const (
	SummarySheet   = "Summary"
	FrequencySheet = "Frequency"
	RiskSheet      = "Risk Alerts"
)

// ContentType is the MIME type of the workbook ReportWorkbook returns.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	frequencyHeader = []string{"Month", "Sessions"}
	riskHeader      = []string{"Patient ID", "Patient", "Risk", "Reason", "Date"}
)

// ReportWorkbook writes the report into three sheets: headline numbers,
// sessions per month and the risk alert list.
func ReportWorkbook(r *ledger.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	summary := [][]any{
		{"Psychologist ID", r.PsychologistID},
		{"Generated At", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Active Patients", r.Stats.ActivePatients},
		{"Total Sessions", r.Stats.TotalSessions},
		{"Scheduled Sessions", r.Stats.ScheduledSessions},
		{"Started Sessions", r.Stats.StartedSessions},
		{"Completed Sessions", r.Stats.CompletedSessions},
		{"Canceled Sessions", r.Stats.CanceledSessions},
		{"Completion Rate (%)", r.Stats.CompletionRate},
		{"Patients With Sessions", r.PatientsWithSessions},
		{"Patients Without Sessions", r.PatientsWithoutSessions},
		{"Risk Alerts", r.Stats.RiskAlerts},
	}
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	freq := make([][]any, 0, len(r.Frequency)+1)
	freq = append(freq, toRow(frequencyHeader))
	for _, m := range r.Frequency {
		freq = append(freq, []any{m.Month, m.Sessions})
	}
	if err := addTable(f, FrequencySheet, freq, headerStyle); err != nil {
		return nil, err
	}

	risk := make([][]any, 0, len(r.RiskAlerts)+1)
	risk = append(risk, toRow(riskHeader))
	for _, a := range r.RiskAlerts {
		risk = append(risk, []any{a.PatientID, a.Patient, string(a.Risk), a.Reason, a.Date})
	}
	if err := addTable(f, RiskSheet, risk, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// addTable creates sheet with rows[0] as a styled, frozen header row.
func addTable(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return fmt.Errorf("convert column number: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func toRow(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
