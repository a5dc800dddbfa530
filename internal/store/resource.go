package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/askmate/apiserver/types"
)

// ResourceFilter narrows resource listings. Zero values mean "no filter":
// an empty Status returns resources in every moderation state.
type ResourceFilter struct {
	ModuleID   int
	UploadedBy string
	Status     types.ResourceStatus
}

// ResourceRepository handles persistence for resources.
type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

const resourceColumns = `id, title, description, resource_type, category, url, object_key,
	module_id, uploaded_by, uploader_name, uploader_role, status, download_count, created_at, updated_at`

func (r *ResourceRepository) Get(ctx context.Context, id int) (types.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	resource, err := r.scanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Resource{}, ErrNotFound
		}
		return types.Resource{}, err
	}
	return resource, nil
}

func (r *ResourceRepository) List(ctx context.Context, filter ResourceFilter) ([]types.Resource, error) {
	query := `SELECT ` + resourceColumns + `
		FROM resources
		WHERE ($1 = 0 OR module_id = $1)
		  AND ($2 = '' OR uploaded_by = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, filter.ModuleID, filter.UploadedBy, string(filter.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []types.Resource
	for rows.Next() {
		resource, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

func (r *ResourceRepository) Create(ctx context.Context, resource types.Resource) (types.Resource, error) {
	now := time.Now()
	resource.CreatedAt = now
	resource.UpdatedAt = now

	const query = `
		INSERT INTO resources (title, description, resource_type, category, url, object_key,
			module_id, uploaded_by, uploader_name, uploader_role, status, download_count,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		resource.Title,
		resource.Description,
		string(resource.ResourceType),
		resource.Category,
		resource.URL,
		resource.ObjectKey,
		resource.ModuleID,
		resource.UploadedBy,
		resource.UploaderName,
		string(resource.UploaderRole),
		string(resource.Status),
		resource.DownloadCount,
		resource.CreatedAt,
		resource.UpdatedAt,
	).Scan(&resource.ID); err != nil {
		return types.Resource{}, mapError(err)
	}
	return resource, nil
}

func (r *ResourceRepository) Update(ctx context.Context, resource types.Resource) (types.Resource, error) {
	resource.UpdatedAt = time.Now()

	const query = `
		UPDATE resources
		SET title = $1,
			description = $2,
			resource_type = $3,
			category = $4,
			url = $5,
			object_key = $6,
			status = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		resource.Title,
		resource.Description,
		string(resource.ResourceType),
		resource.Category,
		resource.URL,
		resource.ObjectKey,
		string(resource.Status),
		resource.UpdatedAt,
		resource.ID,
	)
	if err != nil {
		return types.Resource{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Resource{}, err
	}
	if affected == 0 {
		return types.Resource{}, ErrNotFound
	}
	return resource, nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM resources WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementDownloads bumps the download counter for a served file.
func (r *ResourceRepository) IncrementDownloads(ctx context.Context, id int) error {
	const query = `UPDATE resources SET download_count = download_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *ResourceRepository) scanRow(row rowScanner) (types.Resource, error) {
	var resource types.Resource
	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&resource.Description,
		&resource.ResourceType,
		&resource.Category,
		&resource.URL,
		&resource.ObjectKey,
		&resource.ModuleID,
		&resource.UploadedBy,
		&resource.UploaderName,
		&resource.UploaderRole,
		&resource.Status,
		&resource.DownloadCount,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	)
	if err != nil {
		return types.Resource{}, err
	}
	return resource, nil
}
