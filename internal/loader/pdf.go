package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// PDFLoader extracts plain text from every page of a PDF file.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader { return &PDFLoader{} }

// Load reads the PDF at path. Every failure is reported as *domain.LoadError.
func (l *PDFLoader) Load(ctx context.Context, path string) (doc domain.Document, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return domain.Document{}, &domain.LoadError{Path: path, Err: statErr}
	}
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc = domain.Document{}
			err = &domain.LoadError{Path: path, Err: fmt.Errorf("parse pdf: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, &domain.LoadError{Path: path, Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer f.Close()

	total := r.NumPage()
	doc = domain.Document{ID: DocumentID(path), Path: path}
	hasText := false
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return domain.Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, &domain.LoadError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
		doc.Pages = append(doc.Pages, domain.Page{
			Number: i,
			Text:   text,
			Metadata: domain.Metadata{
				"source":      path,
				"page":        i,
				"total_pages": total,
				"fonts":       p.Fonts(),
			},
		})
	}
	if !hasText {
		return domain.Document{}, &domain.LoadError{Path: path, Err: errors.New("no text extracted from pdf")}
	}
	return doc, nil
}

// DocumentID returns a short stable identifier for a document path.
func DocumentID(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
