package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/shortreel/backend/internal/db"
	"github.com/shortreel/backend/internal/logging"
	"github.com/shortreel/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	return classify("insert user", err)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, classify("select user by email", err)
	}

	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for video records.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, controls,
            transform_height, transform_width, transform_quality, created_at, updated_at`

// Create inserts a video record and returns it with the store-generated id and timestamps.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "videos.create")

	created, err := r.create(ctx, video)
	span.EndWithError(err)
	return created, err
}

func (r *PostgresVideoRepository) create(ctx context.Context, video models.Video) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO videos (owner_id, title, description, video_url, thumbnail_url, controls,
            transform_height, transform_width, transform_quality)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+videoColumns,
		video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.Controls,
		video.Transformation.Height, video.Transformation.Width, video.Transformation.Quality)

	created, err := scanVideo(row)
	if err != nil {
		return models.Video{}, classify("insert video", err)
	}

	return created, nil
}

// List returns video records newest first. A non-empty query restricts the
// result to records whose title or description contains it, ignoring case.
func (r *PostgresVideoRepository) List(ctx context.Context, query string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var rows pgx.Rows
	if query == "" {
		rows, err = conn.Query(ctx, `
            SELECT `+videoColumns+`
            FROM videos
            ORDER BY created_at DESC, id
        `)
	} else {
		pattern := "%" + escapeLike(query) + "%"
		rows, err = conn.Query(ctx, `
            SELECT `+videoColumns+`
            FROM videos
            WHERE title ILIKE $1 OR description ILIKE $1
            ORDER BY created_at DESC, id
        `, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// FindByID loads a single video record.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE id = $1
    `, id)

	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, classify("select video", err)
	}

	return video, nil
}

// Delete removes a video record permanently.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	ctx, span := logging.StartSpan(ctx, "videos.delete")

	err := r.delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		span.End()
	} else {
		span.EndWithError(err)
	}
	return err
}

func (r *PostgresVideoRepository) delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE id = $1
    `, id)
	if err != nil {
		return classify("delete video", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Controls,
		&v.Transformation.Height, &v.Transformation.Width, &v.Transformation.Quality,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return models.Video{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
