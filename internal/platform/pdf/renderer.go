// Package pdf renders report documents to minimal PDF 1.4 files. The
// output is a plain text layout, one key/value pair per line, which is
// enough for download/print flows without an external rendering service.
package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	pageWidth    = 612
	pageHeight   = 792
	marginLeft   = 72
	marginTop    = 756
	lineHeight   = 12
	linesPerPage = 54
	maxLineLen   = 92
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Render lays the document out as an indented key/value listing and wraps
// it in a paginated PDF.
func (g *Generator) Render(reportType string, document json.RawMessage) ([]byte, error) {
	lines, err := flatten(document)
	if err != nil {
		return nil, fmt.Errorf("flatten report document: %w", err)
	}
	title := strings.ReplaceAll(reportType, "_", " ") + " REPORT"
	all := append([]string{title, ""}, lines...)
	return writePDF(paginate(all)), nil
}

// flatten walks the JSON document in declaration order and emits one line
// per scalar, indented by nesting depth.
func flatten(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var lines []string
	if err := walkValue(dec, "", 0, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func walkValue(dec *json.Decoder, name string, depth int, lines *[]string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", depth)
	delim, isDelim := tok.(json.Delim)
	if !isDelim {
		*lines = append(*lines, clip(indent+label(name)+scalar(tok)))
		return nil
	}

	if name != "" {
		*lines = append(*lines, clip(indent+name+":"))
	}
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			if err := walkValue(dec, key, depth+1, lines); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkValue(dec, fmt.Sprintf("%d", i+1), depth+1, lines); err != nil {
				return err
			}
		}
	}
	// Consume the closing delimiter.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func label(name string) string {
	if name == "" {
		return ""
	}
	return name + ": "
}

func scalar(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case json.Number:
		return v.String()
	}
	return fmt.Sprintf("%v", tok)
}

func clip(s string) string {
	if len(s) <= maxLineLen {
		return s
	}
	return s[:maxLineLen-3] + "..."
}

func paginate(lines []string) [][]string {
	var pages [][]string
	for len(lines) > linesPerPage {
		pages = append(pages, lines[:linesPerPage])
		lines = lines[linesPerPage:]
	}
	if len(lines) > 0 || len(pages) == 0 {
		pages = append(pages, lines)
	}
	return pages
}

// writePDF assembles the object graph by hand: catalog, page tree, one
// page and content stream per page, and a shared Helvetica font object.
func writePDF(pages [][]string) []byte {
	var buf bytes.Buffer
	offsets := []int{0}

	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n")

	pageCount := len(pages)
	fontObj := 3 + 2*pageCount
	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	addObj("<< /Type /Catalog /Pages 2 0 R >>")
	addObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount))

	for i, page := range pages {
		pageObj := 3 + 2*i
		addObj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, fontObj, pageObj+1))

		var content bytes.Buffer
		fmt.Fprintf(&content, "BT\n/F1 10 Tf\n%d TL\n%d %d Td\n", lineHeight, marginLeft, marginTop)
		for j, line := range page {
			if j > 0 {
				content.WriteString("T*\n")
			}
			fmt.Fprintf(&content, "(%s) Tj\n", escape(line))
		}
		content.WriteString("ET")
		addObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
	}

	addObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets))
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xrefStart)
	return buf.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
