package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinner struct {
	lastFilename string
	err          error
}

func (f *fakePinner) Pin(ctx context.Context, filename string, content []byte) (string, error) {
	f.lastFilename = filename
	if f.err != nil {
		return "", f.err
	}
	return "ipfs://QmFake", nil
}

func setupUploadApp(t *testing.T, pinner Pinner) *fiber.App {
	t.Helper()
	h := &Handlers{Service: &Service{Pinner: pinner, UploadsDir: t.TempDir()}}
	app := fiber.New()
	app.Post("/documents/upload", h.Upload)
	return app
}

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadEndpoint_Success(t *testing.T) {
	pinner := &fakePinner{}
	app := setupUploadApp(t, pinner)

	resp, err := app.Test(multipartUpload(t, "transcript.pdf", "pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "transcript.pdf", pinner.lastFilename)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, "ipfs://QmFake", data["documentURI"])
	gw, _ := data["gatewayURL"].(string)
	assert.True(t, strings.HasPrefix(gw, "https://gateway.pinata.cloud/ipfs/"))
}

func TestUploadEndpoint_MissingFile(t *testing.T) {
	app := setupUploadApp(t, &fakePinner{})

	req := httptest.NewRequest("POST", "/documents/upload", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestUploadEndpoint_StoreFailure(t *testing.T) {
	app := setupUploadApp(t, &fakePinner{err: errors.New("pinata down")})

	resp, err := app.Test(multipartUpload(t, "transcript.pdf", "pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}
