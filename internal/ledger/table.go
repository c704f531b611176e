package ledger

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is an untyped record set as read from a broker export.
type Table struct {
	Headers []string
	Rows    [][]string
}

var ErrNoTable = errors.New("no table found in document")

// LoadFile reads a CSV, HTML or JSON export based on its extension.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return LoadHTML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return LoadCSV(f)
	}
}

func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return &Table{Headers: headers, Rows: records[1:]}, nil
}

// LoadHTML reads the first <table> of a trade-book or P&L statement page.
// Headers come from <th> cells when present, otherwise from the first row.
func LoadHTML(r io.Reader) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	t := &Table{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		headerRow := tr.Find("th").Length() > 0
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		if t.Headers == nil && (headerRow || len(t.Rows) == 0) {
			t.Headers = cells
			return
		}
		t.Rows = append(t.Rows, cells)
	})
	return t, nil
}

// LoadJSON reads an array of flat objects. Column order is alphabetical.
func LoadJSON(r io.Reader) (*Table, error) {
	var records []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	seen := map[string]bool{}
	var headers []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	t := &Table{Headers: headers}
	for _, rec := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = stringify(rec[h])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
