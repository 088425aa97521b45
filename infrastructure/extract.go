package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/sirupsen/logrus"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"evidence-hub/domain"
)

const maxUploadBytes = 10 << 20

// Upload formats; CSV goes to the column parser, everything else to paste mode.
const (
	FormatText = "text"
	FormatCSV  = "csv"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxBreak        = regexp.MustCompile(`<w:(?:br|cr)/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

type TextExtractor struct {
	log *logrus.Logger
}

func NewTextExtractor(log *logrus.Logger) *TextExtractor {
	return &TextExtractor{log: log}
}

// ExtractTextFromFile turns an uploaded review export into text and reports
// which parser mode it belongs to.
func (x *TextExtractor) ExtractTextFromFile(file io.Reader, filename string) (string, string, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", "", fmt.Errorf("%w: file larger than %d bytes", domain.ErrInvalidInput, maxUploadBytes)
	}

	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "txt", "md", "":
		return string(data), FormatText, nil
	case "csv":
		return string(data), FormatCSV, nil
	case "pdf":
		text, err := x.extractTextFromPDF(data)
		return text, FormatText, err
	case "docx":
		text, err := extractTextFromDOCX(data)
		return text, FormatText, err
	default:
		return "", "", fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, filepath.Ext(filename))
	}
}

func (x *TextExtractor) extractTextFromPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", errors.New("PDF has no pages")
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			x.log.WithError(err).WithField("page", i).Warn("skipping unreadable PDF page")
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			x.log.WithError(err).WithField("page", i).Warn("skipping PDF page")
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			x.log.WithError(err).WithField("page", i).Warn("skipping PDF page")
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("no text could be extracted from any page of the PDF")
	}
	return text, nil
}

func extractTextFromDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxBreak.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content)), nil
}
