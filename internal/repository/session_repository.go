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

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) (*model.Session, error)
	List(ctx context.Context, status *model.SessionStatus) ([]*model.Session, error)
	FindByID(ctx context.Context, id int) (*model.Session, error)
	Update(ctx context.Context, id int, values map[string]interface{}) (*model.Session, error)
	Delete(ctx context.Context, id int) error
	CountByCourseID(ctx context.Context, courseID int) (int, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Session, error)
	DecrementSpots(ctx context.Context, tx pgx.Tx, id int) error
	IncrementSpots(ctx context.Context, tx pgx.Tx, id int) error
}

type SessionRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &SessionRepositoryImpl{
		pool: pool,
	}
}

const sessionColumns = `s.id, s.course_id, s.start_time, s.end_time, s.available_spots, s.status, s.created_at, s.updated_at`

// 以 join 一次帶出課程資料，避免預約流程的多次查詢
const sessionWithCourseQuery = `
	SELECT ` + sessionColumns + `,
	       c.id, c.name, c.description, c.duration_minutes, c.max_participants, c.price, c.is_active, c.created_at, c.updated_at
	FROM sessions s
	JOIN courses c ON c.id = s.course_id
`

func scanSessionWithCourse(row pgx.Row) (*model.Session, error) {
	var session model.Session
	var course model.Course
	err := row.Scan(
		&session.ID,
		&session.CourseID,
		&session.StartTime,
		&session.EndTime,
		&session.AvailableSpots,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
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
	if err != nil {
		return nil, err
	}
	session.Course = &course
	return &session, nil
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	query := `
		INSERT INTO sessions (course_id, start_time, end_time, available_spots, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, course_id, start_time, end_time, available_spots, status, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		session.CourseID, session.StartTime, session.EndTime,
		session.AvailableSpots, session.Status,
	).Scan(
		&session.ID,
		&session.CourseID,
		&session.StartTime,
		&session.EndTime,
		&session.AvailableSpots,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (r *SessionRepositoryImpl) List(ctx context.Context, status *model.SessionStatus) ([]*model.Session, error) {
	query := sessionWithCourseQuery
	args := []interface{}{}

	if status != nil {
		query += ` WHERE s.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY s.start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*model.Session, 0)

	for rows.Next() {
		session, err := scanSessionWithCourse(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Session, error) {
	query := sessionWithCourseQuery + ` WHERE s.id = $1`

	session, err := scanSessionWithCourse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}

	return session, nil
}

// FindByIDWithLock 以 FOR UPDATE 鎖定場次列，所有讀取後修改名額的操作都必須經過這裡，
// 兩個並發的預約才會在場次列上序列化
func (r *SessionRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.id = $1
		FOR UPDATE
	`

	var session model.Session
	err := tx.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.CourseID,
		&session.StartTime,
		&session.EndTime,
		&session.AvailableSpots,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}

	// 課程資料不需要鎖，另外查詢
	courseQuery := `
		SELECT id, name, description, duration_minutes, max_participants, price, is_active, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var course model.Course
	err = tx.QueryRow(ctx, courseQuery, session.CourseID).Scan(
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
	if err != nil {
		return nil, err
	}
	session.Course = &course

	return &session, nil
}

// DecrementSpots 條件扣減名額，available_spots 不足時回傳 ErrSessionFull
func (r *SessionRepositoryImpl) DecrementSpots(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE sessions
		SET available_spots = available_spots - 1, updated_at = $1
		WHERE id = $2 AND available_spots > 0
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSessionFull
	}

	return nil
}

// IncrementSpots 釋放名額，上限為課程的 max_participants
func (r *SessionRepositoryImpl) IncrementSpots(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE sessions s
		SET available_spots = s.available_spots + 1, updated_at = $1
		FROM courses c
		WHERE s.id = $2 AND c.id = s.course_id AND s.available_spots < c.max_participants
	`

	result, err := tx.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepositoryImpl) Update(ctx context.Context, id int, values map[string]interface{}) (*model.Session, error) {
	// available_spots 不開放直接改，只由預約與取消增減
	allowedFields := map[string]bool{
		"start_time": true,
		"end_time":   true,
		"status":     true,
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
		UPDATE sessions
		SET %s
		WHERE id = $%d
		RETURNING id, course_id, start_time, end_time, available_spots, status, created_at, updated_at
	`, strings.Join(sets, ", "), argPos)

	var session model.Session
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&session.ID,
		&session.CourseID,
		&session.StartTime,
		&session.EndTime,
		&session.AvailableSpots,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepositoryImpl) CountByCourseID(ctx context.Context, courseID int) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE course_id = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, courseID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM sessions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}
