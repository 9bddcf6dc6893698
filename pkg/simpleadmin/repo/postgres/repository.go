package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleadmin.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simpleadmin.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simpleadmin.Repository {
	return &Repository{db: pool}
}

// Migrate creates the post table when it does not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return simpleadmin.ErrPostNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return simpleadmin.ErrDuplicateSlug
			}
			return fmt.Errorf("duplicate entry")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const postColumns = `id, title, slug, description, content, cover_image, images, published, created_at, updated_at`

func scanPost(row pgx.Row) (*simpleadmin.Post, error) {
	var post simpleadmin.Post
	err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Description, &post.Content,
		&post.CoverImage, &post.Images, &post.Published, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *Repository) CreatePost(ctx context.Context, post *simpleadmin.Post) error {
	query := `
		INSERT INTO post (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	images := post.Images
	if images == nil {
		images = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Slug, post.Description, post.Content,
		post.CoverImage, images, post.Published, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleadmin.Post, error) {
	query := `SELECT ` + postColumns + ` FROM post WHERE id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get post", err)
	}
	return post, nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleadmin.Post, error) {
	query := `SELECT ` + postColumns + ` FROM post ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := []*simpleadmin.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list posts", err)
	}
	return posts, nil
}

func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*simpleadmin.Post, error) {
	query := `
		UPDATE post SET published = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRow(ctx, query, id, published))
	if err != nil {
		return nil, r.handlePostgresError("set published", err)
	}
	return post, nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM post WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleadmin.ErrPostNotFound
	}
	return nil
}
