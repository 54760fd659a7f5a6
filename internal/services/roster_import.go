package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/pkg/utils"
	"github.com/xuri/excelize/v2"
)

var (
	nameHeaders  = []string{"name", "full name", "attendee name"}
	emailHeaders = []string{"email", "e-mail", "attendee email"}
)

// ParseRoster reads attendee rows from a .csv or .xlsx upload. The first row is a
// header; rows without a name or email are skipped.
func ParseRoster(filename string, data []byte) ([]request_models.AttendeeInput, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(data)
	case ".xlsx":
		rows, err = readXLSX(data)
	default:
		return nil, utils.NewValidationError("Only .csv and .xlsx files are supported")
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.NewValidationError("The uploaded file is empty")
	}

	nameCol, emailCol := headerIndex(rows[0], nameHeaders), headerIndex(rows[0], emailHeaders)
	if nameCol < 0 || emailCol < 0 {
		return nil, utils.NewValidationError("The file must have name and email columns")
	}

	attendees := make([]request_models.AttendeeInput, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name, email := cell(row, nameCol), cell(row, emailCol)
		if name == "" || email == "" {
			continue
		}
		attendees = append(attendees, request_models.AttendeeInput{Name: name, Email: email})
	}
	return attendees, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, utils.NewValidationError("Could not parse CSV file")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, utils.NewValidationError("Could not parse Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.NewValidationError("The uploaded file is empty")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, utils.NewValidationError("Could not parse Excel file")
	}
	return rows, nil
}

func headerIndex(header []string, aliases []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
