package repository

import (
	"context"
	"fmt"
	"time"

	"go-gin-course-booking/internal/model"
	apperrors "go-gin-course-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationRepository interface {
	ListByUserID(ctx context.Context, userID int) ([]*model.Registration, error)
	List(ctx context.Context, status *model.RegistrationStatus) ([]*model.Registration, error)
	FindByID(ctx context.Context, id int) (*model.Registration, error)
	CountBySessionID(ctx context.Context, sessionID int) (int, error)
	CountConfirmedBySessionID(ctx context.Context, sessionID int) (int, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, registration *model.Registration) (*model.Registration, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Registration, error)
	ExistsConfirmed(ctx context.Context, tx pgx.Tx, userID int, sessionID int) (bool, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, id int, cancelledAt time.Time) (*model.Registration, error)
}

type RegistrationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &RegistrationRepositoryImpl{
		pool: pool,
	}
}

const registrationColumns = `id, user_id, session_id, session_book_id, status, registered_at, cancelled_at`

func scanRegistration(row pgx.Row, registration *model.Registration) error {
	return row.Scan(
		&registration.ID,
		&registration.UserID,
		&registration.SessionID,
		&registration.SessionBookID,
		&registration.Status,
		&registration.RegisteredAt,
		&registration.CancelledAt,
	)
}

func (r *RegistrationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, registration *model.Registration) (*model.Registration, error) {
	query := `
		INSERT INTO registrations (user_id, session_id, session_book_id, status, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + registrationColumns

	err := scanRegistration(tx.QueryRow(ctx, query,
		registration.UserID, registration.SessionID, registration.SessionBookID,
		registration.Status, registration.RegisteredAt,
	), registration)

	if err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	return registration, nil
}

func (r *RegistrationRepositoryImpl) ListByUserID(ctx context.Context, userID int) ([]*model.Registration, error) {
	// join 場次與課程供「我的報名」畫面直接使用
	query := `
		SELECT r.id, r.user_id, r.session_id, r.session_book_id, r.status, r.registered_at, r.cancelled_at,
		       s.id, s.course_id, s.start_time, s.end_time, s.available_spots, s.status, s.created_at, s.updated_at,
		       c.id, c.name, c.description, c.duration_minutes, c.max_participants, c.price, c.is_active, c.created_at, c.updated_at
		FROM registrations r
		JOIN sessions s ON s.id = r.session_id
		JOIN courses c ON c.id = s.course_id
		WHERE r.user_id = $1
		ORDER BY r.registered_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]*model.Registration, 0)

	for rows.Next() {
		var registration model.Registration
		var session model.Session
		var course model.Course
		err := rows.Scan(
			&registration.ID,
			&registration.UserID,
			&registration.SessionID,
			&registration.SessionBookID,
			&registration.Status,
			&registration.RegisteredAt,
			&registration.CancelledAt,
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
		registration.Session = &session
		registrations = append(registrations, &registration)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return registrations, nil
}

func (r *RegistrationRepositoryImpl) List(ctx context.Context, status *model.RegistrationStatus) ([]*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
	`
	args := []interface{}{}

	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY registered_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]*model.Registration, 0)

	for rows.Next() {
		var registration model.Registration
		if err := scanRegistration(rows, &registration); err != nil {
			return nil, err
		}
		registrations = append(registrations, &registration)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return registrations, nil
}

func (r *RegistrationRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`

	var registration model.Registration
	err := scanRegistration(r.pool.QueryRow(ctx, query, id), &registration)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}

	return &registration, nil
}

// FindByIDWithLock 取消流程使用：鎖定報名列，避免同一筆報名被並發取消兩次
func (r *RegistrationRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
		FOR UPDATE
	`

	var registration model.Registration
	err := scanRegistration(tx.QueryRow(ctx, query, id), &registration)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, err
	}

	return &registration, nil
}

// ExistsConfirmed 檢查 (user, session) 是否已有 confirmed 報名。
// cancelled 的不算，取消後可以重新報名
func (r *RegistrationRepositoryImpl) ExistsConfirmed(ctx context.Context, tx pgx.Tx, userID int, sessionID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM registrations
			WHERE user_id = $1 AND session_id = $2 AND status = $3
		)
	`

	var exists bool
	err := tx.QueryRow(ctx, query, userID, sessionID, model.RegistrationStatusConfirmed).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *RegistrationRepositoryImpl) MarkCancelled(ctx context.Context, tx pgx.Tx, id int, cancelledAt time.Time) (*model.Registration, error) {
	query := `
		UPDATE registrations
		SET status = $1, cancelled_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + registrationColumns

	var registration model.Registration
	err := scanRegistration(tx.QueryRow(ctx, query,
		model.RegistrationStatusCancelled, cancelledAt, id, model.RegistrationStatusConfirmed,
	), &registration)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("failed to cancel registration: %w", err)
	}

	return &registration, nil
}

func (r *RegistrationRepositoryImpl) CountBySessionID(ctx context.Context, sessionID int) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE session_id = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RegistrationRepositoryImpl) CountConfirmedBySessionID(ctx context.Context, sessionID int) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE session_id = $1 AND status = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, sessionID, model.RegistrationStatusConfirmed).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
