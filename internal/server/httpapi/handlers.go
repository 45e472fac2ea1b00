// Package httpapi exposes the file exchange over HTTP: signup, login,
// authenticated multipart upload and anonymous download by opaque link
// token, plus liveness and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dkruglov/fileshare/internal/common"
	"github.com/dkruglov/fileshare/internal/logging"
	"github.com/dkruglov/fileshare/internal/server/models"
	"github.com/dkruglov/fileshare/internal/server/services"
)

// UserFlows is the slice of UserService the handlers need.
type UserFlows interface {
	Register(ctx context.Context, name, password, email string) (*models.User, error)
	Login(ctx context.Context, name, password string) (string, error)
}

// FileFlows is the slice of FileService the handlers need.
type FileFlows interface {
	Ingest(ctx context.Context, src services.PartSource, owner string) ([]string, error)
	Resolve(ctx context.Context, linkDigest string) (*models.File, error)
}

// BlobOpener streams stored payloads back out; the local store implements it.
type BlobOpener interface {
	Open(storagePath string) (*os.File, error)
}

// Handler bundles the HTTP handlers with their dependencies.
type Handler struct {
	users UserFlows
	files FileFlows
	blobs BlobOpener
	log   logging.Logger
}

func NewHandler(users UserFlows, files FileFlows, blobs BlobOpener, log logging.Logger) *Handler {
	return &Handler{users: users, files: files, blobs: blobs, log: log}
}

type signupRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Signup creates an account. A taken name or email answers 409.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.users.Register(r.Context(), req.Name, req.Password, req.Email); err != nil {
		h.log.Warn(r.Context(), "signup failed", "name", req.Name, "error", err.Error())
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.users.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// multipartSource adapts a multipart reader to the part iterator consumed
// by ingestion. Payload bytes are only pulled when the service reads them.
type multipartSource struct {
	mr *multipart.Reader
}

func (s *multipartSource) Next() (*services.Part, error) {
	p, err := s.mr.NextPart()
	if err != nil {
		return nil, err
	}

	name := p.FileName()
	if name == "" {
		name = p.FormName()
	}

	return &services.Part{
		Name:        name,
		ContentType: p.Header.Get("Content-Type"),
		Data:        p,
	}, nil
}

// Upload ingests every part of a multipart request on behalf of the
// authenticated user and answers with the download link of the first part.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart body expected"})
		return
	}

	links, err := h.files.Ingest(r.Context(), &multipartSource{mr: mr}, claims.Username)
	if err != nil {
		h.log.Warn(r.Context(), "upload failed", "owner", claims.Username, "error", err.Error())
		writeError(w, err)
		return
	}
	if len(links) == 0 {
		writeError(w, common.ErrNoLinkProduced)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"link": links[0]})
}

// Download resolves a link token and streams the payload. The token is a
// bcrypt digest and may contain slashes, so it is cut from the escaped
// request path and unescaped here rather than by the router.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	token, err := downloadToken(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	file, err := h.files.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := h.blobs.Open(file.StoragePath)
	if err != nil {
		// A live record without its payload is an internal inconsistency,
		// not a client-visible 404.
		h.log.Error(r.Context(), "payload missing for live record", "path", file.StoragePath)
		writeError(w, err)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension("." + file.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	if _, err := io.Copy(w, f); err != nil {
		h.log.Error(r.Context(), "streaming download failed", "path", file.StoragePath, "error", err.Error())
	}
}

func downloadToken(r *http.Request) (string, error) {
	escaped := r.URL.EscapedPath()
	idx := strings.LastIndex(escaped, "/")
	if idx < 0 || idx == len(escaped)-1 {
		return "", common.ErrorNotFound
	}
	return url.PathUnescape(escaped[idx+1:])
}

// HealthLive answers liveness probes.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
