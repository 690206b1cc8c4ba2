package responses

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ecogroup/ecgsite/rw"
)

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// WritePDFResponseHeaders write HTTP response headers for PDF response. i.e. headers are frozen
func WritePDFResponseHeaders(w http.ResponseWriter, disposition string, filename string) {
	if disposition == "" {
		disposition = DispositionInline
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.WriteHeader(http.StatusOK) // Response Header Sent & Frozen
}

// PDFSaver hands a finished document to the client as a download.
// It satisfies pdfs.Saver.
type PDFSaver struct {
	W           http.ResponseWriter
	Disposition string // attachment when empty
	written     int64
	filename    string
}

func NewPDFSaver(w http.ResponseWriter) *PDFSaver {
	return &PDFSaver{W: w, Disposition: DispositionAttachment}
}

func (s *PDFSaver) Save(ctx context.Context, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.filename != "" {
		return fmt.Errorf("response already carries %q", s.filename)
	}
	disposition := s.Disposition
	if disposition == "" {
		disposition = DispositionAttachment
	}
	s.filename = filename
	s.W.Header().Set("Content-Length", strconv.Itoa(len(data)))
	WritePDFResponseHeaders(s.W, disposition, filename)
	cw := rw.NewCountWriter(s.W)
	_, err := cw.Write(data)
	s.written = cw.BytesWritten()
	return err
}

// Filename is the name of the saved document, empty before Save
func (s *PDFSaver) Filename() string { return s.filename }

// BytesWritten counts the body bytes sent
func (s *PDFSaver) BytesWritten() int64 { return s.written }
