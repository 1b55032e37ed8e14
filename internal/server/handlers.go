package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoiceocr/internal/ingest"
	"invoiceocr/internal/ocr"
	"invoiceocr/internal/rasterize"
	"invoiceocr/internal/store"
	"invoiceocr/internal/template"
)

// extractResponse carries the per-page extracted lines of one upload.
type extractResponse struct {
	Document string             `json:"document"`
	Pages    []ingest.PageLines `json:"pages"`
}

// extractLines handles the upload on the Create Template page: an image is
// extracted directly, a PDF is rasterized, staged, extracted per page and
// cleaned up.
func (s *Server) extractLines(c *gin.Context) {
	data, name, err := readUpload(c, "invoice")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	resp := extractResponse{Document: name}
	if isPDF(name, data) {
		resp.Pages, err = s.pipeline.ProcessPDF(c.Request.Context(), name, data)
	} else {
		var lines []string
		lines, err = s.pipeline.ProcessImage(c.Request.Context(), data)
		if err == nil {
			resp.Pages = []ingest.PageLines{{Page: 1, Lines: lines}}
		}
	}
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// saveTemplateRequest is the body of POST /api/templates.
type saveTemplateRequest struct {
	Name string               `json:"name" binding:"required"`
	Rows []template.FieldSpec `json:"rows" binding:"required"`
}

func (s *Server) saveTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	if err := s.templates.Save(c.Request.Context(), req.Name, template.BuildRows(req.Rows)); err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": req.Name + suffixIfMissing(req.Name)})
}

func (s *Server) listTemplates(c *gin.Context) {
	names, err := s.templates.List(c.Request.Context())
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": names})
}

func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.templates.Delete(c.Request.Context(), c.Param("name")); err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// resultRow mirrors template.ResultRow with the row-level error flattened
// to a string for the client.
type resultRow struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// applyTemplate handles the Use Template page: extract lines from the
// uploaded invoice image and resolve the chosen template against them.
// Rows whose index is out of range are marked individually; the apply as a
// whole still succeeds.
func (s *Server) applyTemplate(c *gin.Context) {
	templateName := c.PostForm("template")
	if templateName == "" {
		s.fail(c, http.StatusBadRequest, errors.New("template form field is required"))
		return
	}

	data, _, err := readUpload(c, "invoice")
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	rows, err := s.templates.Load(c.Request.Context(), templateName)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	lines, err := s.pipeline.ProcessImage(c.Request.Context(), data)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	result := template.Apply(rows, lines)
	out := make([]resultRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		r := resultRow{Name: row.Name, Text: row.Text}
		if row.Err != nil {
			// The marker travels in the text so a later export of these
			// rows carries it through unless the field is edited first.
			r.Text = template.OutOfRangeMarker
			r.Error = row.Err.Error()
		}
		out = append(out, r)
	}
	c.JSON(http.StatusOK, gin.H{
		"template": templateName,
		"category": c.PostForm("category"), // cosmetic, echoed back only
		"rows":     out,
	})
}

// exportRequest is the body of POST /api/export: the result table as the
// client holds it, an optional single-field edit, and the download name.
type exportRequest struct {
	Filename string `json:"filename" binding:"required"`
	Rows     []struct {
		Name string `json:"name"`
		Text string `json:"text"`
	} `json:"rows" binding:"required"`
	Edit *struct {
		Name string `json:"name"`
		Text string `json:"text"`
	} `json:"edit"`
}

// exportResult serializes the (possibly edited) result table to CSV and
// offers it for download under the user-chosen file name, as given.
func (s *Server) exportResult(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	result := template.Result{}
	for _, row := range req.Rows {
		result.Rows = append(result.Rows, template.ResultRow{Name: row.Name, Text: row.Text})
	}
	if req.Edit != nil {
		result.SetField(req.Edit.Name, req.Edit.Text)
	}

	data, err := result.ExportCSV()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+req.Filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// readUpload reads one multipart file field and returns its bytes plus a
// document name: the uploaded filename, or a generated one if missing.
func readUpload(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, documentName(header), nil
}

// documentName picks the upload's identity: its filename or a fresh UUID.
func documentName(header *multipart.FileHeader) string {
	if header.Filename != "" {
		return header.Filename
	}
	return uuid.New().String()
}

// isPDF decides the document kind from the filename, falling back to the
// magic header.
func isPDF(name string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "%PDF"
}

func suffixIfMissing(name string) string {
	if strings.HasSuffix(name, template.Ext) {
		return ""
	}
	return template.Ext
}

// fail renders an error as a JSON message at the handler boundary.
func (s *Server) fail(c *gin.Context, status int, err error) {
	s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rasterize.ErrMalformedDocument),
		errors.Is(err, ocr.ErrInvalidImage),
		errors.Is(err, ocr.ErrImageTooLarge),
		errors.Is(err, template.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ocr.ErrServiceFailed),
		errors.Is(err, ocr.ErrQuotaExceeded),
		errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
