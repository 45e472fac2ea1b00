// Package api implements the HTTP client for the file exchange server:
// signup, login, multipart upload and download by link.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkruglov/fileshare/internal/filex"
	"github.com/dkruglov/fileshare/internal/netx"
)

// Client talks to one file exchange server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, password, email string) error {
	in := map[string]string{"name": name, "password": password, "email": email}
	return netx.PostJSON(ctx, c.http, c.baseURL+"/api/signup", in, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, name, password string) (string, error) {
	in := map[string]string{"name": name, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := netx.PostJSON(ctx, c.http, c.baseURL+"/api/login", in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Upload sends the named local files as one multipart request and returns
// the download link of the first part. The declared part name is the file's
// base name without extension; its content type is guessed from the
// extension.
func (c *Client) Upload(ctx context.Context, token string, paths ...string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range paths {
		if err := addFilePart(mw, p); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := netx.Do(c.http, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Link string `json:"link"`
	}
	if err := decodeJSONBody(resp, &out); err != nil {
		return "", err
	}
	return out.Link, nil
}

func addFilePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, name, name)}
	if ct := mime.TypeByExtension(filepath.Ext(base)); ct != "" {
		header["Content-Type"] = []string{ct}
	}

	fw, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// Download fetches a link into destDir and returns the saved file's path.
// The file name comes from the Content-Disposition header the server sends.
func (c *Client) Download(ctx context.Context, link, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}

	resp, err := netx.Do(c.http, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	dir, err := filex.EnsureDir(destDir)
	if err != nil {
		return "", err
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	dest := filepath.Join(dir, filex.SafeFileName(name))

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("save %s: %w", dest, err)
	}
	return dest, nil
}

func attachmentName(contentDisposition string) string {
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func decodeJSONBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
