package rendering

import (
	"bytes"
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// PointsPerReferenceUnit converts reference pixels (96 DPI) to PDF points (72 DPI)
const PointsPerReferenceUnit = 0.75

// ContentTypePDF is the media type of assembled documents
const ContentTypePDF = "application/pdf"

// documentEpoch is stamped as the creation date of every document so that
// identical bitmaps assemble to identical bytes.
var documentEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// DocumentSink receives an assembled document, e.g. a file system directory,
// an object store or an HTTP response.
type DocumentSink interface {
	Store(ctx context.Context, req *StoreRequest) (*StoreResult, error)
}

// StoreRequest contains the parameters for storing a document
type StoreRequest struct {
	OrganizationID uuid.UUID
	Filename       string
	ContentType    string
	Data           []byte
}

// StoreResult contains the result of storing a document
type StoreResult struct {
	// Path is the sink-specific location, such as a file path or object key
	Path string
	// URL is where the document can be fetched, if the sink exposes one
	URL  string
	Size int64
}

// Document is a single fixed-size page holding one captured bitmap
type Document struct {
	data   []byte
	bitmap *Bitmap
	// Width and Height are the page size in reference units
	Width  float64
	Height float64
}

// Bytes returns the encoded PDF
func (d *Document) Bytes() []byte {
	return d.data
}

// Size returns the encoded size in bytes
func (d *Document) Size() int {
	return len(d.data)
}

// Bitmap returns the page image the document was built from
func (d *Document) Bitmap() *Bitmap {
	return d.bitmap
}

// DataURI returns the document as an inline PDF data URI
func (d *Document) DataURI() string {
	return dataURI(ContentTypePDF, d.data)
}

// Save hands the document to sink under filename
func (d *Document) Save(ctx context.Context, sink DocumentSink, organizationID uuid.UUID, filename string) (*StoreResult, error) {
	result, err := sink.Store(ctx, &StoreRequest{
		OrganizationID: organizationID,
		Filename:       filename,
		ContentType:    ContentTypePDF,
		Data:           d.data,
	})
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to save document", err)
	}
	return result, nil
}

// Assembler builds one-page PDF documents from captured bitmaps
type Assembler struct {
	producer string
}

// AssemblerOption configures the assembler
type AssemblerOption func(*Assembler)

// WithDocumentProducer sets the producer recorded in the PDF metadata
func WithDocumentProducer(producer string) AssemblerOption {
	return func(a *Assembler) {
		a.producer = producer
	}
}

// NewAssembler creates a document assembler
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{producer: "factuurdesk"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble places bitmap over the full area of a single reference-size page.
// The page never grows with content; anything beyond one page has already
// been clipped by the capture.
func (a *Assembler) Assemble(bitmap *Bitmap) (*Document, error) {
	if bitmap == nil || len(bitmap.Data) == 0 {
		return nil, NewAssemblyError("no bitmap to assemble", nil)
	}

	pageWidth := ReferenceWidth * PointsPerReferenceUnit
	pageHeight := ReferenceHeight * PointsPerReferenceUnit

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetCreationDate(documentEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetProducer(a.producer, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("page", opts, bytes.NewReader(bitmap.Data))
	pdf.ImageOptions("page", 0, 0, pageWidth, pageHeight, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, NewAssemblyError("failed to place page image", err)
	}

	width, height := pdf.GetPageSize()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewAssemblyError("failed to encode document", err)
	}
	if buf.Len() == 0 {
		return nil, NewAssemblyError("encoded document is empty", nil)
	}

	return &Document{
		data:   buf.Bytes(),
		bitmap: bitmap,
		Width:  width / PointsPerReferenceUnit,
		Height: height / PointsPerReferenceUnit,
	}, nil
}

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
