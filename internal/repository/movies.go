package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/moviestore/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    m.id,
    m.title,
    m.description,
    m.year,
    m.imdb_rating,
    COALESCE((SELECT array_agg(mc.category_id ORDER BY mc.category_id)
              FROM movie_categories mc WHERE mc.movie_id = m.id), '{}') AS category_ids,
    m.created_at,
    m.updated_at
`

// MovieParams bundles the writable movie fields.
type MovieParams struct {
	Title       string
	Description string
	Year        int
	IMDBRating  float64
	CategoryIDs []int64
}

// MovieListFilters mirrors the catalog's query parameters. Nil/empty fields are ignored.
type MovieListFilters struct {
	Title       *string
	Description *string
	Category    *string
	CategoryID  *int64
	Year        *int
}

// Create inserts a new movie row with its category links. Call it inside
// Repository.WithTx so the links commit with the row.
func (r *MoviesRepository) Create(ctx context.Context, params MovieParams) (domain.Movie, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO movies (title, description, year, imdb_rating)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `, params.Title, params.Description, params.Year, params.IMDBRating).Scan(&id)
	if err != nil {
		return domain.Movie{}, mapWriteError("insert movie", err)
	}
	if err := r.setCategories(ctx, id, params.CategoryIDs); err != nil {
		return domain.Movie{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// Update replaces the writable fields and category links of a movie.
func (r *MoviesRepository) Update(ctx context.Context, id int64, params MovieParams) (domain.Movie, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE movies
        SET title = $2,
            description = $3,
            year = $4,
            imdb_rating = $5,
            updated_at = now()
        WHERE id = $1
    `, id, params.Title, params.Description, params.Year, params.IMDBRating)
	if err != nil {
		return domain.Movie{}, mapWriteError("update movie", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Movie{}, ErrNotFound
	}
	if err := r.setCategories(ctx, id, params.CategoryIDs); err != nil {
		return domain.Movie{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a movie; its rentals and payments go with it via FK cascade.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns movies that match the provided filters.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) ([]domain.Movie, error) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Title != nil && strings.TrimSpace(*filters.Title) != "" {
		where = append(where, fmt.Sprintf("m.title ILIKE %s", arg(likePattern(strings.TrimSpace(*filters.Title)))))
	}
	if filters.Description != nil && strings.TrimSpace(*filters.Description) != "" {
		where = append(where, fmt.Sprintf("m.description ILIKE %s", arg(likePattern(strings.TrimSpace(*filters.Description)))))
	}
	if filters.Category != nil && strings.TrimSpace(*filters.Category) != "" {
		where = append(where, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM movie_categories mc JOIN categories c ON c.id = mc.category_id
            WHERE mc.movie_id = m.id AND c.name = %s)`, arg(strings.TrimSpace(*filters.Category))))
	}
	if filters.CategoryID != nil {
		where = append(where, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM movie_categories mc WHERE mc.movie_id = m.id AND mc.category_id = %s)`, arg(*filters.CategoryID)))
	}
	if filters.Year != nil {
		where = append(where, fmt.Sprintf("m.year = %s", arg(*filters.Year)))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieColumns)
	queryBuilder.WriteString(" FROM movies m")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY m.id")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MoviesRepository) setCategories(ctx context.Context, movieID int64, categoryIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM movie_categories WHERE movie_id = $1`, movieID); err != nil {
		return fmt.Errorf("clear movie categories: %w", err)
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
        INSERT INTO movie_categories (movie_id, category_id)
        SELECT $1, unnest($2::bigint[])
        ON CONFLICT DO NOTHING
    `, movieID, categoryIDs)
	if err != nil {
		return mapWriteError("link movie categories", err)
	}
	return nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Year,
		&movie.IMDBRating,
		&movie.CategoryIDs,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
