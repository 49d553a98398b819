package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) (*model.Course, error)
	List(ctx context.Context, includeInactive bool) ([]*model.Course, error)
	FindByID(ctx context.Context, id int) (*model.Course, error)
	Update(ctx context.Context, id int, values map[string]interface{}) (*model.Course, error)
	Delete(ctx context.Context, id int) error
}

type CourseRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) CourseRepository {
	return &CourseRepositoryImpl{
		pool: pool,
	}
}

const courseColumns = `id, name, description, duration_minutes, max_participants, price, is_active, created_at, updated_at`

func scanCourse(row pgx.Row, course *model.Course) error {
	return row.Scan(
		&course.ID,
		&course.Name,
		&course.Description,
		&course.DurationMinutes,
		&course.MaxParticipants,
		&course.Price,
		&course.IsActive,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
}

func (r *CourseRepositoryImpl) Create(ctx context.Context, course *model.Course) (*model.Course, error) {
	query := `
		INSERT INTO courses (name, description, duration_minutes, max_participants, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + courseColumns

	err := scanCourse(r.pool.QueryRow(ctx, query,
		course.Name, course.Description, course.DurationMinutes,
		course.MaxParticipants, course.Price, course.IsActive,
	), course)

	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return course, nil
}

func (r *CourseRepositoryImpl) List(ctx context.Context, includeInactive bool) ([]*model.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE deleted_at IS NULL
	`
	if !includeInactive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]*model.Course, 0)

	for rows.Next() {
		var course model.Course
		if err := scanCourse(rows, &course); err != nil {
			return nil, err
		}
		courses = append(courses, &course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *CourseRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE id = $1 AND deleted_at IS NULL
	`

	var course model.Course
	err := scanCourse(r.pool.QueryRow(ctx, query, id), &course)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, err
	}

	return &course, nil
}

func (r *CourseRepositoryImpl) Update(ctx context.Context, id int, values map[string]interface{}) (*model.Course, error) {
	allowedFields := map[string]bool{
		"name":             true,
		"description":      true,
		"duration_minutes": true,
		"max_participants": true,
		"price":            true,
		"is_active":        true,
	}

	sets := []string{}
	args := []interface{}{}
	argPos := 1

	for column, value := range values {
		if ok := allowedFields[column]; !ok {
			return nil, apperrors.ErrInvalidInput
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE courses
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING `+courseColumns, strings.Join(sets, ", "), argPos)

	var course model.Course
	err := scanCourse(r.pool.QueryRow(ctx, query, args...), &course)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, err
	}

	return &course, nil
}

func (r *CourseRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		UPDATE courses
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	// check if course exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}
