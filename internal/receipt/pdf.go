package receipt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	// ContentType of the rendered receipt.
	ContentType = "application/pdf"
	// Extension used for stored receipts.
	Extension = ".pdf"

	title      = "ActionKeeper Agreement Receipt"
	textWidth  = 180
	termIndent = "  "
)

// Fields is everything printed on a receipt.
type Fields struct {
	AgreementID     string
	AgreementType   string
	Status          string
	Hash            string
	VerificationURL string
	Terms           map[string]interface{}
	CreatedAt       time.Time
}

// Renderer turns receipt fields into document bytes.
type Renderer interface {
	Render(fields Fields) ([]byte, error)
}

// PDFRenderer renders A4 receipts with the core Helvetica font.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(fields Fields) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// pin document dates so the same agreement state renders the same bytes
	pdf.SetCreationDate(fields.CreatedAt.UTC())
	pdf.SetModificationDate(fields.CreatedAt.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, true)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, tr("Agreement ID: "+fields.AgreementID), "", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Type: "+fields.AgreementType), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 8, tr("Status: "+fields.Status), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, "Verification Info:", "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(textWidth, 8, "Hash: "+fields.Hash, "", "L", false)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(textWidth, 6, tr("URL: "+fields.VerificationURL), "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, "Agreement Terms:", "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range TermLines(fields.Terms) {
		pdf.MultiCell(textWidth, 8, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// TermLines flattens terms into printable lines. Keys are sorted at every level and nested mappings are
// indented two spaces per depth.
func TermLines(terms map[string]interface{}) []string {
	var lines []string
	appendTermLines(&lines, terms, 0)
	return lines
}

func appendTermLines(lines *[]string, terms map[string]interface{}, depth int) {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	prefix := strings.Repeat(termIndent, depth) + "- "
	for _, key := range keys {
		if nested, ok := asMapping(terms[key]); ok {
			*lines = append(*lines, prefix+key+":")
			appendTermLines(lines, nested, depth+1)
			continue
		}
		*lines = append(*lines, prefix+key+": "+formatValue(terms[key]))
	}
}

// asMapping accepts any string-keyed map, including named types such as models.JSON.
func asMapping(v interface{}) (map[string]interface{}, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
