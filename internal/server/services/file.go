package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dkruglov/fileshare/internal/common"
	"github.com/dkruglov/fileshare/internal/server/config"
	"github.com/dkruglov/fileshare/internal/server/models"
	"github.com/dkruglov/fileshare/internal/server/repositories/files"
	"github.com/dkruglov/fileshare/internal/server/repositories/repomanager"
)

// Part is one uploaded payload: a declared name, an optional MIME type and
// the payload bytes. Data is only read after the name passed the duplicate
// check, so rejected parts cost no I/O.
type Part struct {
	Name        string
	ContentType string
	Data        io.Reader
}

// PartSource yields parts in arrival order; Next returns io.EOF after the
// last one. The multipart reader of the HTTP layer implements this.
type PartSource interface {
	Next() (*Part, error)
}

// BlobStore is the durable local sink.
type BlobStore interface {
	Write(storagePath string, data []byte) error
}

// Mirror is the secondary remote sink, keyed by declared file name.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte) error
}

// FileService ingests uploads into both sinks plus the metadata store, and
// resolves download tokens back to file records.
type FileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         BlobStore
	mirror        Mirror
	storageRoot   string
	publicBaseURL string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store BlobStore, mirror Mirror, cfg *config.Config) *FileService {
	return &FileService{
		db:            db,
		repomanager:   m,
		store:         store,
		mirror:        mirror,
		storageRoot:   cfg.StorageRoot,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

// typeLabel reduces a MIME type to the extension-ish label used in storage
// paths: the subtype, or "txt" when the part declared no usable type.
func typeLabel(contentType string) string {
	_, sub, ok := strings.Cut(contentType, "/")
	if !ok || sub == "" {
		return "txt"
	}
	return sub
}

// Ingest stores every part from src on behalf of owner and returns one
// download link per part, in arrival order. The first failing part aborts
// the rest; links and payloads of earlier parts stay persisted.
func (s *FileService) Ingest(ctx context.Context, src PartSource, owner string) ([]string, error) {
	fileRepo := s.repomanager.Files(s.db)
	userRepo := s.repomanager.Users(s.db)

	var ownerID *int64
	if u, err := userRepo.GetByName(ctx, owner); err == nil {
		ownerID = &u.ID
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	var links []string
	for {
		part, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return links, fmt.Errorf("reading upload part: %w", err)
		}

		link, err := s.ingestPart(ctx, fileRepo, part, owner, ownerID)
		if err != nil {
			return links, err
		}
		links = append(links, link)
	}

	return links, nil
}

func (s *FileService) ingestPart(ctx context.Context, repo files.Repository, part *Part, owner string, ownerID *int64) (string, error) {
	label := typeLabel(part.ContentType)
	storagePath := path.Join(s.storageRoot, owner, part.Name+"."+label)

	// Reject a taken name before touching the payload.
	exists, err := repo.ExistsByName(ctx, part.Name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%w: %s", common.ErrDuplicateName, part.Name)
	}

	data, err := io.ReadAll(part.Data)
	if err != nil {
		return "", fmt.Errorf("%w: reading part %s: %v", common.ErrStorageIO, part.Name, err)
	}
	if int64(len(data)) > math.MaxInt32 {
		return "", fmt.Errorf("%w: part %s is %d bytes", common.ErrSizeConversion, part.Name, len(data))
	}

	linkDigest, err := digest([]byte(storagePath))
	if err != nil {
		return "", err
	}
	contentHash, err := digest(data)
	if err != nil {
		return "", err
	}

	// Dual write. If one sink fails the other is not rolled back; the
	// record below is the durability boundary and is only written once
	// both sinks succeeded.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.Write(storagePath, data)
	})
	g.Go(func() error {
		return s.mirror.Put(gctx, part.Name, data)
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	file := &models.File{
		FileName:       part.Name,
		HashedFileName: linkDigest,
		ContentHash:    contentHash,
		ContentType:    label,
		Size:           int32(len(data)),
		StoragePath:    storagePath,
		OwnerID:        ownerID,
		IsPublic:       true,
	}
	if _, err := repo.Create(ctx, file); err != nil {
		return "", err
	}

	return s.publicBaseURL + "/api/download/" + url.PathEscape(linkDigest), nil
}

// Resolve maps a download token back to its file record. Multiple matches
// cannot happen while the unique constraint holds, but the first row wins
// either way.
func (s *FileService) Resolve(ctx context.Context, linkDigest string) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	found, err := repo.FindByLinkDigest(ctx, linkDigest)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, common.ErrorNotFound
	}
	return found[0], nil
}
