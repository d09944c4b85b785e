// Package loader turns uploaded PDF bytes into raw text for the ingestion
// pipeline. Extraction fidelity is best-effort; the pipeline treats this as
// a black box returning text per page.
package loader

import (
	"bytes"
	"fmt"
	"strings"

	"docvector/types"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractText validates the PDF and extracts plain text page by page,
// joined with newlines. Unreadable input or a document with no extractable
// text fails with ErrExtractionFailed rather than producing silently-wrong
// text.
func ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", types.ErrExtractionFailed)
	}

	conf := api.LoadConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", fmt.Errorf("%w: not a readable PDF: %v", types.ErrExtractionFailed, err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %v", types.ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: extract page %d: %v", types.ErrExtractionFailed, i, err)
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}

	if strings.TrimSpace(buf.String()) == "" {
		return "", fmt.Errorf("%w: no text content in PDF", types.ErrExtractionFailed)
	}
	return buf.String(), nil
}
