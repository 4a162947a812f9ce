package extract

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"code.sajari.com/docconv"

	"github.com/praeceptor-ai/corpus/internal/core"
)

// Content types the extractor understands. Callers may also pass a bare file
// extension hint ("srt", "vtt") when the upload carried no MIME type.
const (
	TypePlainText = "text/plain"
	TypePDF       = "application/pdf"
	TypeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeMSWord    = "application/msword"
	TypeSRT       = "application/x-subrip"
	TypeVTT       = "text/vtt"
)

var _ core.Extractor = (*DocumentExtractor)(nil)

// DocumentExtractor converts raw source blobs into plain text. PDF and Word
// bodies go through docconv; caption formats are stripped down to their spoken
// lines. PDF/DOCX recovery is best-effort and lossy: partial extraction never
// fails the pipeline, only a zero-character result does.
type DocumentExtractor struct {
	useReadability bool
}

func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{useReadability: false}
}

// Extract dispatches on the declared content type and normalizes the result.
func (e *DocumentExtractor) Extract(ctx context.Context, raw []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch normalizeType(contentType) {
	case TypePlainText:
		text = string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})) // strip UTF-8 BOM
	case TypePDF, TypeDocx, TypeMSWord:
		text, err = e.convert(raw, normalizeType(contentType))
	case TypeSRT:
		text = StripSRT(string(raw))
	case TypeVTT:
		text = StripVTT(string(raw))
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, contentType)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text recovered from %q source", core.ErrEmptyContent, contentType)
	}
	return text, nil
}

// convert runs docconv over the raw bytes. docconv errors accompanied by
// partial text are tolerated; only an empty body is fatal.
func (e *DocumentExtractor) convert(raw []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(raw), contentType, e.useReadability)
	if err != nil {
		if res != nil && strings.TrimSpace(res.Body) != "" {
			log.Printf("extract: partial recovery for %s: %v", contentType, err)
			return res.Body, nil
		}
		return "", fmt.Errorf("%w: %v", core.ErrEmptyContent, err)
	}
	return res.Body, nil
}

// normalizeType maps extension hints and parameterized MIME strings onto the
// canonical types above.
func normalizeType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "srt", ".srt", "text/srt", TypeSRT:
		return TypeSRT
	case "vtt", ".vtt", TypeVTT:
		return TypeVTT
	case "txt", ".txt", "text", TypePlainText:
		return TypePlainText
	case "pdf", ".pdf", TypePDF:
		return TypePDF
	case "docx", ".docx", TypeDocx:
		return TypeDocx
	case "doc", ".doc", TypeMSWord:
		return TypeMSWord
	}
	return ct
}
