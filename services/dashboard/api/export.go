package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/xuri/excelize/v2"
)

const (
	vitalsSheet  = "Vitals"
	alertsSheet  = "Alerts"
	patientSheet = "Patient"
	xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// buildVitalsWorkbook writes one column per vital history (oldest first), the recent alerts and the patient
func buildVitalsWorkbook(patient common.PatientProfile, views []common.VitalView, alerts []common.AlertEvent, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	err := f.SetSheetName("Sheet1", vitalsSheet)
	if err != nil {
		return nil, err
	}
	_, err = f.NewSheet(alertsSheet)
	if err != nil {
		return nil, err
	}
	_, err = f.NewSheet(patientSheet)
	if err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	err = writeVitals(f, views, headerStyle)
	if err != nil {
		return nil, err
	}
	err = writeAlerts(f, alerts, headerStyle)
	if err != nil {
		return nil, err
	}
	err = writePatient(f, patient, generatedAt)
	if err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func writeVitals(f *excelize.File, views []common.VitalView, headerStyle int) error {
	err := setCellValue(f, vitalsSheet, 1, 1, "Reading")
	if err != nil {
		return err
	}

	maxRows := 0
	for i, view := range views {
		col := i + 2
		err = setCellValue(f, vitalsSheet, col, 1, fmt.Sprintf("%s (%s)", view.Label, view.Unit))
		if err != nil {
			return err
		}

		for j, value := range view.History {
			err = setCellValue(f, vitalsSheet, col, j+2, value)
			if err != nil {
				return err
			}
		}
		maxRows = max(maxRows, len(view.History))
	}

	for row := 1; row <= maxRows; row++ {
		err = setCellValue(f, vitalsSheet, 1, row+1, row)
		if err != nil {
			return err
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(views)+1, 1)
	if err != nil {
		return err
	}

	return f.SetCellStyle(vitalsSheet, "A1", lastHeader, headerStyle)
}

func writeAlerts(f *excelize.File, alerts []common.AlertEvent, headerStyle int) error {
	headers := []string{"Time", "Severity", "Message"}
	for i, header := range headers {
		err := setCellValue(f, alertsSheet, i+1, 1, header)
		if err != nil {
			return err
		}
	}

	for i, alert := range alerts {
		row := i + 2
		err := setCellValue(f, alertsSheet, 1, row, alert.Timestamp.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
		err = setCellValue(f, alertsSheet, 2, row, string(alert.Severity))
		if err != nil {
			return err
		}
		err = setCellValue(f, alertsSheet, 3, row, alert.Message)
		if err != nil {
			return err
		}
	}

	return f.SetCellStyle(alertsSheet, "A1", "C1", headerStyle)
}

func writePatient(f *excelize.File, patient common.PatientProfile, generatedAt time.Time) error {
	rows := [][2]interface{}{
		{"Name", patient.Name},
		{"Age", patient.Age},
		{"Medical ID", patient.MedicalID},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
	}

	for i, r := range rows {
		err := setCellValue(f, patientSheet, 1, i+1, r[0])
		if err != nil {
			return err
		}
		err = setCellValue(f, patientSheet, 2, i+1, r[1])
		if err != nil {
			return err
		}
	}

	return nil
}

func setCellValue(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	return f.SetCellValue(sheet, cell, value)
}
