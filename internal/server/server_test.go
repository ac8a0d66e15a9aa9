package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benjaminschreck/go-mailmerge/internal/testdocx"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

func newTestServer(t *testing.T) (*httptest.Server, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	srv := httptest.NewServer(New(DefaultConfig(), nil, zap.New(core)))
	t.Cleanup(srv.Close)
	return srv, logs
}

func multipartBody(t *testing.T, parts map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range parts {
		if name == "document" {
			fw, err := mw.CreateFormFile(name, "letter.docx")
			require.NoError(t, err)
			_, err = fw.Write(content)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, mw.WriteField(name, string(content)))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, url string, parts map[string][]byte) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, parts)
	resp, err := http.Post(url, contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv, logs := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	id := resp.Header.Get(MergeIDHeader)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	entries := logs.FilterMessage("request").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, id, entries[0].ContextMap()["merge_id"])
}

func TestMerge(t *testing.T) {
	srv, _ := newTestServer(t)

	job := `
fields:
  MergeMe: WithME!
  Greeting: Hello
bookmarks:
  ReplaceMe: With me!
  ReplaceMe2: With me too!
`
	resp := post(t, srv.URL+"/api/merge", map[string][]byte{
		"document": testdocx.Sample(),
		"job":      []byte(job),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, docxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "letter-merged.docx")

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	doc, err := mailmerge.OpenBytes(out)
	require.NoError(t, err)
	defer doc.Close()

	text, err := doc.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "Replace With me! please.")
	assert.Contains(t, text, "Merge: WithME!")
	assert.Contains(t, text, "Hello!")
}

func TestMerge_WithoutJob(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/merge", map[string][]byte{"document": testdocx.Sample()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	doc, err := mailmerge.OpenBytes(out)
	require.NoError(t, err)
	defer doc.Close()
	assert.True(t, doc.HasMergeField("MergeMe"))
}

func TestMerge_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		parts  map[string][]byte
		status int
	}{
		{
			name:   "missing document",
			parts:  map[string][]byte{"job": []byte("fields: {}")},
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid job",
			parts:  map[string][]byte{"document": testdocx.Sample(), "job": []byte("fields: [unclosed")},
			status: http.StatusBadRequest,
		},
		{
			name:   "not a docx",
			parts:  map[string][]byte{"document": []byte("plain text")},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed bookmark",
			parts: map[string][]byte{
				"document": testdocx.Build(testdocx.Paragraph(testdocx.BookmarkStart(0, "Open"), testdocx.Run("x"))),
				"job":      []byte("bookmarks: {Open: y}"),
			},
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/merge", tt.parts)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMerge_TooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 16
	srv := httptest.NewServer(New(cfg, nil, nil))
	defer srv.Close()

	resp := post(t, srv.URL+"/api/merge", map[string][]byte{"document": testdocx.Sample()})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestInspect(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/inspect", map[string][]byte{"document": testdocx.Sample()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got InspectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"MergeMe", "Greeting"}, got.Fields)
	assert.Equal(t, []string{"ReplaceMe", "ReplaceMe2"}, got.Bookmarks)
	require.NotNil(t, got.Pages)
	assert.Equal(t, 2, *got.Pages)
}

func TestInspect_NoPages(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/inspect", map[string][]byte{"document": testdocx.Build(testdocx.Paragraph())})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[],"bookmarks":[]}`, string(body))
}

func TestMergedName(t *testing.T) {
	assert.Equal(t, "letter-merged.docx", mergedName("letter.docx"))
	assert.Equal(t, "letter-merged.docx", mergedName(`C:\docs\letter.docx`))
	assert.Equal(t, "document-merged.docx", mergedName(""))
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := New(cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
