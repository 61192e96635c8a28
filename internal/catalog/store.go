package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("movie not found")

// Store is the catalog persistence the service depends on. Get and
// IncrementViews only see active movies.
type Store interface {
	List(ctx context.Context, q Query) ([]Movie, int, error)
	Get(ctx context.Context, id int64) (*Movie, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, m *Movie) error
	SetActive(ctx context.Context, ids []int64, active bool) (int64, error)
	SetFreePreview(ctx context.Context, ids []int64, free bool) (int64, error)
}

//go:embed schema.sql
var schema string

const movieColumns = `id, title, overview, thumbnail, backdrop, video_file, trailer_file,
	cast_members, genres, producer, duration_minutes, trailer_duration_seconds,
	price, views, rating, release_date, is_active, has_free_preview, created_at, updated_at`

// Ties break on id so pages never overlap.
var orderClauses = map[Order]string{
	OrderViewsDesc:   "views DESC, id DESC",
	OrderReleaseDesc: "release_date DESC, id DESC",
	OrderRatingDesc:  "rating DESC, id DESC",
	OrderCreatedDesc: "created_at DESC, id DESC",
	OrderReleaseAsc:  "release_date ASC, id ASC",
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the movies table and its indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q Query) ([]Movie, int, error) {
	countSQL, listSQL, countArgs, listArgs := buildListQuery(q)

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}
	if total == 0 {
		return []Movie{}, 0, nil
	}

	rows, err := s.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies := []Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	return movies, total, rows.Err()
}

// buildListQuery renders the count and page queries for q. Only fixed clause
// text is interpolated; values go through placeholders.
func buildListQuery(q Query) (countSQL, listSQL string, countArgs, listArgs []any) {
	where := []string{"is_active = TRUE"}
	if q.MinRating > 0 {
		countArgs = append(countArgs, q.MinRating)
		where = append(where, fmt.Sprintf("rating >= $%d", len(countArgs)))
	}
	if q.ReleasedOnOrAfter != nil {
		countArgs = append(countArgs, q.ReleasedOnOrAfter.Format(dateLayout))
		where = append(where, fmt.Sprintf("release_date >= $%d", len(countArgs)))
	}
	cond := strings.Join(where, " AND ")

	order, ok := orderClauses[q.Order]
	if !ok {
		order = orderClauses[OrderViewsDesc]
	}

	listArgs = append(append([]any{}, countArgs...), q.Limit, q.Offset)
	countSQL = "SELECT COUNT(*) FROM movies WHERE " + cond
	listSQL = fmt.Sprintf("SELECT %s FROM movies WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		movieColumns, cond, order, len(listArgs)-1, len(listArgs))
	return countSQL, listSQL, countArgs, listArgs
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = $1 AND is_active = TRUE`, id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return m, nil
}

// IncrementViews adds one view in a single statement so concurrent streams
// never lose an increment. It returns the new count.
func (s *PostgresStore) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE movies SET views = views + 1 WHERE id = $1 AND is_active = TRUE RETURNING views`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment views %d: %w", id, err)
	}
	return views, nil
}

func (s *PostgresStore) Create(ctx context.Context, m *Movie) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO movies (title, overview, thumbnail, backdrop, video_file, trailer_file,
			cast_members, genres, producer, duration_minutes, trailer_duration_seconds,
			price, release_date, is_active, has_free_preview)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, views, rating, created_at, updated_at`,
		m.Title, m.Overview, m.Thumbnail, m.Backdrop, m.VideoFile, m.TrailerFile,
		pq.Array(m.Cast), pq.Array(m.Genres), m.Producer, m.DurationMinutes, m.TrailerDurationSeconds,
		m.Price, m.ReleaseDate.Format(dateLayout), m.IsActive, m.HasFreePreview,
	).Scan(&m.ID, &m.Views, &m.Rating, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	return s.setFlag(ctx, "is_active", ids, active)
}

func (s *PostgresStore) SetFreePreview(ctx context.Context, ids []int64, free bool) (int64, error) {
	return s.setFlag(ctx, "has_free_preview", ids, free)
}

// setFlag is only called with fixed column names.
func (s *PostgresStore) setFlag(ctx context.Context, column string, ids []int64, value bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE movies SET `+column+` = $1, updated_at = NOW() WHERE id = ANY($2)`,
		value, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", column, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*Movie, error) {
	var m Movie
	err := row.Scan(
		&m.ID, &m.Title, &m.Overview, &m.Thumbnail, &m.Backdrop, &m.VideoFile, &m.TrailerFile,
		pq.Array(&m.Cast), pq.Array(&m.Genres), &m.Producer, &m.DurationMinutes, &m.TrailerDurationSeconds,
		&m.Price, &m.Views, &m.Rating, &m.ReleaseDate.Time, &m.IsActive, &m.HasFreePreview,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return &m, nil
}
