package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoiceocr/internal/ingest"
	"invoiceocr/internal/server"
	"invoiceocr/internal/store"
	"invoiceocr/internal/template"
)

// fakeExtractor returns a fixed set of lines for every image.
type fakeExtractor struct {
	lines []string
	err   error
}

func (f *fakeExtractor) ExtractLines(_ context.Context, _ []byte) ([]string, error) {
	return f.lines, f.err
}

// fakeRenderer turns any PDF into two fixed page images.
type fakeRenderer struct{}

func (fakeRenderer) Pages(_ context.Context, _ []byte) ([][]byte, error) {
	return [][]byte{[]byte("p1"), []byte("p2")}, nil
}

func newTestServer(t *testing.T, lines []string) (*server.Server, *store.MemoryStore) {
	t.Helper()
	blobs := store.NewMemoryStore()
	pipeline := ingest.NewPipeline(fakeRenderer{}, blobs, &fakeExtractor{lines: lines}, false)
	return server.New(pipeline, template.NewStore(blobs)), blobs
}

func upload(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func doRequest(t *testing.T, srv *server.Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestExtractImage(t *testing.T) {
	srv, _ := newTestServer(t, []string{"Invoice #123", "Total: 45.67"})

	body, contentType := upload(t, "invoice", "bill.png", []byte("fake png"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Document string `json:"document"`
		Pages    []struct {
			Page  int      `json:"page"`
			Lines []string `json:"lines"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Document != "bill.png" {
		t.Errorf("document = %q, want bill.png", resp.Document)
	}
	if len(resp.Pages) != 1 || resp.Pages[0].Page != 1 || len(resp.Pages[0].Lines) != 2 {
		t.Errorf("pages = %+v", resp.Pages)
	}
}

func TestExtractPDFStagesAndCleansUp(t *testing.T) {
	srv, blobs := newTestServer(t, []string{"some line"})

	body, contentType := upload(t, "invoice", "bill.pdf", []byte("%PDF-1.4 fake"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Pages []struct {
			Page int `json:"page"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Pages) != 2 {
		t.Errorf("got %d pages, want 2", len(resp.Pages))
	}
	if blobs.Len() != 0 {
		t.Error("staged pages left in store after extraction")
	}
}

func TestSaveListDeleteTemplate(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	payload := `{"name":"electricity","rows":[{"name":"Total","index":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/templates", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if rec := doRequest(t, srv, req); rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body)
	}

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Templates []string `json:"templates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Templates) != 1 || listResp.Templates[0] != "electricity.csv" {
		t.Errorf("templates = %v, want [electricity.csv]", listResp.Templates)
	}

	rec = doRequest(t, srv, httptest.NewRequest(http.MethodDelete, "/api/templates/electricity.csv", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, srv, httptest.NewRequest(http.MethodDelete, "/api/templates/electricity.csv", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestApplyTemplate(t *testing.T) {
	srv, blobs := newTestServer(t, []string{"Invoice #123", "Total: 45.67", "Due: 2024-05-01"})

	// Seed a stored template with one resolvable and one out-of-range row.
	rows := []template.Row{{Name: "Total", Index: 1}, {Name: "X", Index: 10}}
	if err := template.NewStore(blobs).Save(context.Background(), "electricity", rows); err != nil {
		t.Fatalf("seed template: %v", err)
	}

	body, contentType := upload(t, "invoice", "bill.png", []byte("fake png"),
		map[string]string{"template": "electricity.csv", "category": "water"})
	req := httptest.NewRequest(http.MethodPost, "/api/apply", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Category string `json:"category"`
		Rows     []struct {
			Name  string `json:"name"`
			Text  string `json:"text"`
			Error string `json:"error"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Category != "water" {
		t.Errorf("category = %q, want echo of selection", resp.Category)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %+v, want 2", resp.Rows)
	}
	if resp.Rows[0].Text != "Total: 45.67" || resp.Rows[0].Error != "" {
		t.Errorf("resolved row = %+v", resp.Rows[0])
	}
	if resp.Rows[1].Error == "" {
		t.Errorf("out-of-range row carries no error: %+v", resp.Rows[1])
	}
	if resp.Rows[1].Text != template.OutOfRangeMarker {
		t.Errorf("out-of-range row text = %q, want the marker", resp.Rows[1].Text)
	}
}

func TestApplyThenExportKeepsMarker(t *testing.T) {
	srv, blobs := newTestServer(t, []string{"only line"})

	rows := []template.Row{{Name: "Total", Index: 0}, {Name: "X", Index: 10}}
	if err := template.NewStore(blobs).Save(context.Background(), "gas", rows); err != nil {
		t.Fatalf("seed template: %v", err)
	}

	body, contentType := upload(t, "invoice", "bill.png", []byte("fake png"),
		map[string]string{"template": "gas.csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/apply", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply status = %d, body = %s", rec.Code, rec.Body)
	}

	// Re-export the rows exactly as the browser holds them after an apply.
	var applied struct {
		Rows []struct {
			Name string `json:"name"`
			Text string `json:"text"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &applied); err != nil {
		t.Fatalf("decode apply response: %v", err)
	}
	export, err := json.Marshal(map[string]any{"filename": "out.csv", "rows": applied.Rows})
	if err != nil {
		t.Fatalf("encode export request: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/api/export", bytes.NewReader(export))
	req.Header.Set("Content-Type", "application/json")

	rec = doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); !strings.Contains(got, "X,"+template.OutOfRangeMarker) {
		t.Errorf("export lost the out-of-range marker: %q", got)
	}
	if got := rec.Body.String(); !strings.Contains(got, "Total,only line") {
		t.Errorf("export lost the resolved row: %q", got)
	}
}

func TestApplyMissingTemplate(t *testing.T) {
	srv, _ := newTestServer(t, []string{"a line"})

	body, contentType := upload(t, "invoice", "bill.png", []byte("fake png"),
		map[string]string{"template": "nope.csv"})
	req := httptest.NewRequest(http.MethodPost, "/api/apply", body)
	req.Header.Set("Content-Type", contentType)

	if rec := doRequest(t, srv, req); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExportWithEdit(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	payload := `{
		"filename": "result.csv",
		"rows": [{"name":"Number","text":"Invoice #123"},{"name":"Total","text":"45.67"}],
		"edit": {"name":"Total","text":"50.00"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(t, srv, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "result.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	got := rec.Body.String()
	if !strings.Contains(got, "Name,Text") {
		t.Errorf("export missing header: %q", got)
	}
	if !strings.Contains(got, "Total,50.00") {
		t.Errorf("export missing edited value: %q", got)
	}
	if !strings.Contains(got, "Number,Invoice #123") {
		t.Errorf("export changed unedited row: %q", got)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range server.Categories {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("categories response missing %q: %s", want, rec.Body)
		}
	}
}
