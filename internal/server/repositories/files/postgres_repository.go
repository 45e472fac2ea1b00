package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dkruglov/fileshare/internal/common"
	"github.com/dkruglov/fileshare/internal/dbx"
	"github.com/dkruglov/fileshare/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file record and returns it with the generated fields
// filled in. The insert is the durability boundary of an upload: only after
// it succeeds is the part considered stored. A unique violation (declared
// name or link digest already live) maps to common.ErrDuplicateName, which
// also closes the check-then-insert race between concurrent uploads.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {

	query :=
		`INSERT INTO files (file_name, hashed_file_name, content_hash, content_type, size, storage_path, owner_id, is_public, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.FileName, file.HashedFileName, file.ContentHash, file.ContentType,
		file.Size, file.StoragePath, file.OwnerID, file.IsPublic, file.IsDeleted,
	).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrDuplicateName
		}
		return nil, fmt.Errorf("%w: %v", common.ErrRepository, err)
	}

	return file, nil
}

// FindByLinkDigest returns the non-deleted records whose link-identity
// digest matches, oldest first. The digest is unique, so the result has at
// most one element; retrieval takes the first deterministically.
func (r *PostgresRepository) FindByLinkDigest(ctx context.Context, digest string) ([]*models.File, error) {
	query :=
		`SELECT id, file_name, hashed_file_name, content_hash, content_type, size, storage_path, owner_id, is_public, is_deleted
		 FROM files
		 WHERE hashed_file_name = $1 AND NOT is_deleted
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRepository, err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item := &models.File{}
		err := rows.Scan(&item.ID, &item.FileName, &item.HashedFileName, &item.ContentHash,
			&item.ContentType, &item.Size, &item.StoragePath, &item.OwnerID, &item.IsPublic, &item.IsDeleted)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrRepository, err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRepository, err)
	}

	return result, nil
}

// ExistsByName reports whether a non-deleted record with the declared name
// already exists. Ingestion uses it as a cheap short-circuit before reading
// the payload; the authoritative check is the unique index hit in Create.
func (r *PostgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	query := `SELECT count(*) FROM files WHERE file_name = $1 AND NOT is_deleted`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrRepository, err)
	}

	return count > 0, nil
}

// SoftDelete flips the is_deleted flag; hard deletion is out of scope.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE files SET is_deleted = TRUE, deleted_at = now() WHERE id = $1 AND NOT is_deleted`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRepository, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRepository, err)
	}

	if rowsAffected != 1 {
		return common.ErrorNotFound
	}

	return nil
}
