package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxReader) Read(p string, opt Options) (*Dataset, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()
	return readWorkbook(&zr.Reader, p, opt)
}

// ReadXLSX reads a workbook held in memory.
func ReadXLSX(data []byte, source string, opt Options) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return readWorkbook(zr, source, opt)
}

func readWorkbook(zr *zip.Reader, source string, opt Options) (*Dataset, error) {
	wb := workbook{files: zr}
	sheets := wb.sheets()
	target, err := wb.sheetPath(sheets, opt)
	if err != nil {
		return nil, fmt.Errorf("%w (workbook %s)", err, filepath.Base(source))
	}
	sheetXML := wb.file(target)
	if sheetXML == nil {
		return nil, fmt.Errorf("sheet part %s missing from workbook %s", target, filepath.Base(source))
	}
	rows := newRowScanner(sheetXML, wb.sharedStrings())
	header, ok := rows.next()
	if !ok || len(header) == 0 {
		return &Dataset{Source: source}, nil
	}
	b := newTableBuilder(source, header, opt)
	for !b.full() {
		row, ok := rows.next()
		if !ok {
			break
		}
		b.add(row)
	}
	if rows.err != nil {
		return nil, fmt.Errorf("read sheet: %w", rows.err)
	}
	return b.build(), nil
}

type workbook struct {
	files *zip.Reader
}

type sheetEntry struct {
	name    string
	sheetID int
	relID   string
}

func (wb workbook) file(name string) []byte {
	for _, f := range wb.files.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

// sheetPath resolves the zip part of the requested sheet: by name when one is
// set, otherwise by 1-based index.
func (wb workbook) sheetPath(sheets []sheetEntry, opt Options) (string, error) {
	rels := wb.relationships()
	if opt.SheetName != "" {
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.name
			if strings.EqualFold(s.name, opt.SheetName) {
				if rel, ok := rels[s.relID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		return "", fmt.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(names, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	for _, s := range sheets {
		if s.sheetID == idx {
			if rel, ok := rels[s.relID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	if idx <= len(sheets) {
		if rel, ok := rels[sheets[idx-1].relID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx)), nil
}

func (wb workbook) sheets() []sheetEntry {
	var out []sheetEntry
	eachStart(wb.file("xl/workbook.xml"), func(se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "sheetId":
				s.sheetID, _ = strconv.Atoi(a.Value)
			case "id":
				s.relID = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

// relationships maps relationship ids to their targets.
func (wb workbook) relationships() map[string]string {
	out := map[string]string{}
	eachStart(wb.file("xl/_rels/workbook.xml.rels"), func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func (wb workbook) sharedStrings() []string {
	data := wb.file("xl/sharedStrings.xml")
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out []string
		buf strings.Builder
		inT bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

func eachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

// rowScanner walks <row> elements of a worksheet, yielding cell texts placed
// at their column index. Cells absent from the XML come back empty.
type rowScanner struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newRowScanner(data []byte, shared []string) *rowScanner {
	return &rowScanner{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (s *rowScanner) next() ([]string, bool) {
	var (
		row   []string
		inRow bool
	)
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = row[:0]
			case inRow && se.Name.Local == "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				idx := len(row)
				if ref != "" {
					if i := colIndexFromRef(ref); i >= 0 {
						idx = i
					}
				}
				val := s.cellValue(typ)
				for len(row) <= idx {
					row = append(row, "")
				}
				row[idx] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

// cellValue consumes tokens up to the end of the current <c> element.
func (s *rowScanner) cellValue(typ string) string {
	var val string
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var text string
				if err := s.dec.DecodeElement(&text, &se); err == nil {
					val += text
				}
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			switch typ {
			case "s":
				i, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || i < 0 || i >= len(s.shared) {
					return ""
				}
				return s.shared[i]
			case "b":
				if val == "1" {
					return "TRUE"
				}
				return "FALSE"
			case "e":
				return ""
			}
			return val
		}
	}
}

// colIndexFromRef turns a cell reference like "C12" into a 0-based column.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

// normalizeRelPath maps a relationship target to its zip entry name. Targets
// may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
