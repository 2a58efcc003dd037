package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula-cli/internal/table"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadCSVTypesCells(t *testing.T) {
	p := writeFile(t, "people.csv", "\ufeffname,age,active,joined\nAda,36,true,2020-01-05\nBob,,FALSE,soon\n")
	sh, err := ReadFile(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "active", "joined"}, sh.Header)
	assert.Equal(t, "people.csv", sh.FileName)
	assert.Positive(t, sh.FileSize)
	require.Len(t, sh.Rows, 2)

	ada := sh.Rows[0]
	assert.Equal(t, table.Text("Ada"), ada["name"])
	assert.Equal(t, table.Number(36), ada["age"])
	assert.Equal(t, table.Bool(true), ada["active"])
	assert.Equal(t, table.Text("2020-01-05"), ada["joined"])

	bob := sh.Rows[1]
	assert.True(t, bob["age"].IsNull())
	assert.Equal(t, table.Bool(false), bob["active"])
}

func TestReadTSVAndShortRows(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\tc\n1\t2\n")
	sh, err := ReadFile(p, Options{})
	require.NoError(t, err)
	require.Len(t, sh.Rows, 1)
	assert.Equal(t, table.Number(2), sh.Rows[0]["b"])
	assert.True(t, sh.Rows[0]["c"].IsNull())
}

func TestHeaderNormalization(t *testing.T) {
	p := writeFile(t, "h.csv", ",city,,city,city\n1,2,3,4,5\n")
	sh, err := ReadFile(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"__EMPTY", "city", "__EMPTY_1", "city_1", "city_2"}, sh.Header)
	assert.Equal(t, table.Number(4), sh.Rows[0]["city_1"])
}

func TestMaxRowsAndBlankRows(t *testing.T) {
	p := writeFile(t, "m.csv", "n\n1\n\n,\n2\n3\n")
	sh, err := ReadFile(p, Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Len(t, sh.Rows, 2)
	assert.Equal(t, 3, sh.Total)
	assert.Equal(t, []string{"kept only 2/3 rows due to max rows"}, sh.Warnings)
}

func TestEmptyAndUnsupported(t *testing.T) {
	_, err := ReadFile(writeFile(t, "empty.csv", ""), Options{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ReadFile(writeFile(t, "header.csv", "a,b\n"), Options{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ReadFile(writeFile(t, "notes.txt", "hello"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.True(t, Supported("X.XLSX"))
	assert.False(t, Supported("a.xls"))
}

func TestParseCell(t *testing.T) {
	assert.True(t, ParseCell("  ").IsNull())
	assert.Equal(t, table.Number(-1.5e3), ParseCell("-1.5e3"))
	assert.Equal(t, table.Text("Inf"), ParseCell("Inf"))
	assert.Equal(t, table.Text("NaN"), ParseCell("NaN"))
	assert.Equal(t, table.Text("0x10"), ParseCell("0x10"))
	assert.Equal(t, table.Text("1e999"), ParseCell("1e999"))
	assert.Equal(t, table.Bool(true), ParseCell("True"))
}

const workbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets>
    <sheet name="Ignore" sheetId="1" r:id="rId1"/>
    <sheet name="Data" sheetId="2" r:id="rId2"/>
  </sheets>
</workbook>`

const relsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
  <Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`

const sharedXML = `<sst><si><t>city</t></si><si><t>sales</t></si><si><t>Oslo</t></si><si><r><t>Ro</t></r><r><t>me</t></r></si></sst>`

const sheet1XML = `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>skip</t></is></c></row><row r="2"><c r="A2"><v>1</v></c></row></sheetData></worksheet>`

const sheet2XML = `<worksheet><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="inlineStr"><is><t>ok</t></is></c><c r="D1" t="str"><v>when</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>12.5</v></c><c r="C2" t="b"><v>1</v></c><c r="D2" t="d"><v>2024-03-01</v></c></row>
<row r="3"><c r="A3" t="s"><v>3</v></c><c r="C3" t="e"><v>#DIV/0!</v></c></row>
<row r="4"></row>
<row r="5"><c r="B5"><v>7</v></c></row>
</sheetData></worksheet>`

func writeXLSX(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, sheet2XML)
}

// writeWorkbook builds the two-sheet workbook with the given body for "Data".
func writeWorkbook(t *testing.T, dataSheet string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.xlsx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"xl/workbook.xml":            workbookXML,
		"xl/_rels/workbook.xml.rels": relsXML,
		"xl/sharedStrings.xml":       sharedXML,
		"xl/worksheets/sheet1.xml":   sheet1XML,
		"xl/worksheets/sheet2.xml":   dataSheet,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestReadXLSXSheetSelection(t *testing.T) {
	p := writeXLSX(t)

	byName, err := ReadFile(p, Options{SheetName: "data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "sales", "ok", "when"}, byName.Header)
	require.Len(t, byName.Rows, 3)

	r := byName.Rows[0]
	assert.Equal(t, table.Text("Oslo"), r["city"])
	assert.Equal(t, table.Number(12.5), r["sales"])
	assert.Equal(t, table.Bool(true), r["ok"])
	assert.Equal(t, table.KindDate, r["when"].Kind())

	r = byName.Rows[1]
	assert.Equal(t, table.Text("Rome"), r["city"])
	assert.True(t, r["sales"].IsNull())
	assert.True(t, r["ok"].IsNull())

	assert.True(t, byName.Rows[2]["city"].IsNull())
	assert.Equal(t, table.Number(7), byName.Rows[2]["sales"])

	byIndex, err := ReadFile(p, Options{SheetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, byName.Header, byIndex.Header)

	first, err := ReadFile(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"skip"}, first.Header)

	_, err = ReadFile(p, Options{SheetName: "Nope"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), "Ignore, Data")
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeRelPath(tt.input), tt.input)
	}
}

func TestColIndexFromRef(t *testing.T) {
	assert.Equal(t, 0, colIndexFromRef("A1"))
	assert.Equal(t, 2, colIndexFromRef("c12"))
	assert.Equal(t, 26, colIndexFromRef("AA3"))
	assert.Equal(t, -1, colIndexFromRef(""))
	assert.Equal(t, maxColumns-1, colIndexFromRef("XFD1"))
	assert.Equal(t, maxColumns, colIndexFromRef("XFE1"))
	assert.Equal(t, maxColumns, colIndexFromRef("AAAAAAAAAAAAAAAAAAAA1"))
}

func TestReadXLSXRejectsColumnsPastXFD(t *testing.T) {
	p := writeWorkbook(t, `<worksheet><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>name</t></is></c></row>
<row r="2"><c r="AAAAAAA2"><v>1</v></c></row>
</sheetData></worksheet>`)
	_, err := ReadFile(p, Options{SheetName: "Data"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrColumnRange)
}
