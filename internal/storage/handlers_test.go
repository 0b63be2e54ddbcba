package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-nextquest/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func asUser(c *fiber.Ctx) error {
	c.Locals("identity", auth.Identity{UserID: "user-1"})
	return c.Next()
}

func multipartBody(t *testing.T, field string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if data != nil {
		fw, err := w.CreateFormFile(field, "upload.bin")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	for k, v := range extra {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func TestStorageUploadAndServe(t *testing.T) {
	mock := newMock(t)
	mem := newMemStore()
	svc := NewService(mock, mem, "http://localhost/blobs", 1024)

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", KeyFor(pngBytes), pgxmock.AnyArg(), "avatar", int64(len(pngBytes))).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	RegisterRoutes(app, svc, asUser)

	body, ct := multipartBody(t, "file", pngBytes, map[string]string{"kind": "avatar"})
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %d %v", resp.StatusCode, err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/blobs/"+KeyFor(pngBytes), nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("serve status: %v", err)
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, pngBytes) || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected blob response %q", resp.Header.Get("Content-Type"))
	}
}

func TestStorageServeMissing(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, NewService(nil, newMemStore(), "", 0), asUser)

	for _, key := range []string{KeyFor([]byte("none")), "not-a-key"} {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/blobs/"+key, nil))
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", key, resp.StatusCode)
		}
	}
}

func TestStorageUploadErrors(t *testing.T) {
	mem := newMemStore()
	app := fiber.New()
	RegisterRoutes(app, NewService(nil, mem, "", 8), asUser)

	body, ct := multipartBody(t, "file", nil, map[string]string{"kind": "photo"})
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ct)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", resp.StatusCode)
	}

	body, ct = multipartBody(t, "file", make([]byte, 9), nil)
	req = httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ct)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}

	mem.fail = ErrStoreUnavailable
	body, ct = multipartBody(t, "file", []byte("tiny"), nil)
	req = httptest.NewRequest(http.MethodPost, "/storage/upload", body)
	req.Header.Set("Content-Type", ct)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestHTTPErrorUnknown(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return HTTPError(c, context.DeadlineExceeded) })
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}
