package services

import (
	"bytes"
	"testing"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRosterCSVHeaderAliases(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"plain", "name,email\nAlice,alice@example.com\n"},
		{"title case", "Name,Email\nAlice,alice@example.com\n"},
		{"long form", "Full Name,E-mail\nAlice,alice@example.com\n"},
		{"attendee prefix", "Attendee Name,Attendee Email\nAlice,alice@example.com\n"},
		{"byte order mark", "\xef\xbb\xbfName,Email\nAlice,alice@example.com\n"},
		{"extra columns", "Company,Email,Name\nAcme,alice@example.com,Alice\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoster("roster.csv", []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, []request_models.AttendeeInput{{Name: "Alice", Email: "alice@example.com"}}, got)
		})
	}
}

func TestParseRosterSkipsIncompleteRows(t *testing.T) {
	data := "Name,Email\nAlice,alice@example.com\n,nobody@example.com\nBob,\nCarol, carol@example.com \n"

	got, err := ParseRoster("ROSTER.CSV", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, []request_models.AttendeeInput{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	}, got)
}

func TestParseRosterXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Full Name", "Attendee Email"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Alice", "alice@example.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Bob", "bob@example.com"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := ParseRoster("roster.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []request_models.AttendeeInput{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	}, got)
}

func TestParseRosterRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"unsupported extension", "roster.txt", "name,email\n"},
		{"empty file", "roster.csv", ""},
		{"missing email column", "roster.csv", "Name,Phone\nAlice,123\n"},
		{"broken xlsx", "roster.xlsx", "not a zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster(tt.filename, []byte(tt.data))
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}
}
