package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lunysse-scheduler/internal/export"
	"lunysse-scheduler/internal/ledger"
)

func TestReportWorkbook(t *testing.T) {
	rep := &ledger.Report{
		PsychologistID: 2,
		Stats: ledger.ReportStats{
			ActivePatients:    5,
			TotalSessions:     4,
			CompletedSessions: 3,
			ScheduledSessions: 1,
			CompletionRate:    75,
			RiskAlerts:        1,
		},
		Frequency:               []ledger.MonthCount{{Month: "Jan", Sessions: 1}, {Month: "Feb", Sessions: 3}},
		PatientsWithSessions:    2,
		PatientsWithoutSessions: 3,
		RiskAlerts: []ledger.RiskAlert{
			{PatientID: 5, Patient: "Maria Santos", Risk: ledger.RiskHigh, Reason: "consecutive absences", Date: "2024-12-17"},
		},
		GeneratedAt: time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC),
	}

	data, err := export.ReportWorkbook(rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SummarySheet, export.FrequencySheet, export.RiskSheet}, f.GetSheetList())

	tests := []struct {
		sheet, cell, want string
	}{
		{export.SummarySheet, "A1", "Psychologist ID"},
		{export.SummarySheet, "B1", "2"},
		{export.SummarySheet, "B2", "2024-12-18 10:00:00"},
		{export.SummarySheet, "B9", "75"},
		{export.FrequencySheet, "A1", "Month"},
		{export.FrequencySheet, "A3", "Feb"},
		{export.FrequencySheet, "B3", "3"},
		{export.RiskSheet, "B2", "Maria Santos"},
		{export.RiskSheet, "C2", "high"},
		{export.RiskSheet, "E2", "2024-12-17"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet+"!"+tt.cell, func(t *testing.T) {
			got, err := f.GetCellValue(tt.sheet, tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportWorkbookEmpty(t *testing.T) {
	data, err := export.ReportWorkbook(&ledger.Report{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.RiskSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Patient ID", "Patient", "Risk", "Reason", "Date"}, rows[0])
}
