package ingest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestReadCSV(t *testing.T) {
	csv := "firstName,lastName,email,company,title\n" +
		"Jane,Doe,jane@acme.com,Acme Corp,VP Engineering\n" +
		"John,Smith,john@globex.io,Globex,CTO\n"

	records, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Jane", records[0]["firstName"])
	assert.Equal(t, "jane@acme.com", records[0]["email"])
	assert.Equal(t, "Globex", records[1]["company"])
}

func TestReadCSVHeaderAliases(t *testing.T) {
	csv := "First Name,Last Name,E-mail,Company Name,Job Title\n" +
		"Jane,Doe,jane@acme.com,Acme Corp,VP Engineering\n"

	records, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "Jane", records[0]["firstName"])
	assert.Equal(t, "Doe", records[0]["lastName"])
	assert.Equal(t, "jane@acme.com", records[0]["email"])
	assert.Equal(t, "Acme Corp", records[0]["company"])
	assert.Equal(t, "VP Engineering", records[0]["title"])
}

func TestReadCSVSkipsEmptyRowsAndToleratesRagged(t *testing.T) {
	csv := "firstName,lastName,email\n" +
		"Jane,Doe,jane@acme.com\n" +
		",,\n" +
		"John,Smith\n"

	records, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[1]["email"]) // short row padded
}

func TestReadCSVHeaderOnly(t *testing.T) {
	records, err := ReadCSV(strings.NewReader("firstName,email\n"))
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,\"b\nunterminated"))
	assert.Error(t, err)
}

func TestReadCSVUnknownColumnsPassThrough(t *testing.T) {
	csv := "firstName,email,Favorite Color\nJane,jane@acme.com,teal\n"
	records, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "teal", records[0]["Favorite Color"])
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"First Name", "Last Name", "Email", "Company", "Title"} {
		header.AddCell().SetString(h)
	}
	row := sheet.AddRow()
	for _, v := range []string{"Jane", "Doe", "jane@acme.com", "Acme Corp", "VP Engineering"} {
		row.AddCell().SetString(v)
	}
	require.NoError(t, f.Save(path))

	records, err := ReadXLSXFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0]["firstName"])
	assert.Equal(t, "Acme Corp", records[0]["company"])
}

func TestReadXLSXFileMissing(t *testing.T) {
	_, err := ReadXLSXFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
