package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository exposes typed DB operations for quiz metadata.
type QuizRepository struct {
	db *pgxpool.Pool
}

// NewQuizRepository constructs a quiz repository over a pgx pool.
func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db}
}

const quizColumns = "quiz_id, owner_id, title, description, visibility, image_url, created_at, updated_at"

// Create persists a new quiz row.
func (r *QuizRepository) Create(ctx context.Context, params CreateQuizParams) (Quiz, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO quizzes (owner_id, title, description, visibility, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+quizColumns,
		params.OwnerID, params.Title, params.Description, params.Visibility, params.ImageURL)
	q, err := scanQuiz(row)
	if err != nil {
		return Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return q, nil
}

// GetByID fetches a quiz without ownership scoping (library reads).
func (r *QuizRepository) GetByID(ctx context.Context, quizID uuid.UUID) (Quiz, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE quiz_id = $1`, quizID)
	q, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	if err != nil {
		return Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return q, nil
}

// Update rewrites quiz metadata, scoped to the owning caller.
func (r *QuizRepository) Update(ctx context.Context, params UpdateQuizParams) (Quiz, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE quizzes
		SET title = $3, description = $4, visibility = $5, image_url = $6, updated_at = now()
		WHERE quiz_id = $1 AND owner_id = $2
		RETURNING `+quizColumns,
		params.QuizID, params.OwnerID, params.Title, params.Description, params.Visibility, params.ImageURL)
	q, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quiz{}, ErrQuizNotFound
	}
	if err != nil {
		return Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return q, nil
}

// Delete hard-deletes a quiz owned by the caller. Questions and answers go
// with it via FK cascade. It returns every image URL referenced by the quiz,
// its questions and its answers so the caller can clean up blob storage.
func (r *QuizRepository) Delete(ctx context.Context, quizID, ownerID uuid.UUID) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin delete quiz: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT image_url FROM quizzes WHERE quiz_id = $1 AND owner_id = $2 AND image_url IS NOT NULL
		UNION ALL
		SELECT q.image_url FROM questions q
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE z.quiz_id = $1 AND z.owner_id = $2 AND q.image_url IS NOT NULL
		UNION ALL
		SELECT a.image_url FROM answers a
		JOIN questions q ON q.question_id = a.question_id
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE z.quiz_id = $1 AND z.owner_id = $2 AND a.image_url IS NOT NULL`,
		quizID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("collect quiz images: %w", err)
	}
	var images []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan image url: %w", err)
		}
		images = append(images, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image urls: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM quizzes WHERE quiz_id = $1 AND owner_id = $2`, quizID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrQuizNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete quiz: %w", err)
	}
	return images, nil
}

// List returns quizzes matching the filter ordered by recency.
func (r *QuizRepository) List(ctx context.Context, filter QuizFilter) ([]Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE 1=1`
	args := make([]any, 0, 5)

	if filter.Visibility != "" {
		args = append(args, filter.Visibility)
		query += fmt.Sprintf(" AND visibility = $%d", len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return quizzes, nil
}

func scanQuiz(row pgx.Row) (Quiz, error) {
	var q Quiz
	err := row.Scan(&q.QuizID, &q.OwnerID, &q.Title, &q.Description, &q.Visibility, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}
