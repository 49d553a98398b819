package service

import (
	"context"

	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/repository"
	apperrors "go-gin-course-booking/pkg/app_errors"
)

// CatalogService 課程與場次的後台維護與前台查詢
type CatalogService interface {
	CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error)
	ListCourses(ctx context.Context, includeInactive bool) ([]*model.Course, error)
	GetCourse(ctx context.Context, id int) (*model.Course, error)
	UpdateCourse(ctx context.Context, id int, params *model.UpdateCourseParams) (*model.Course, error)
	DeleteCourse(ctx context.Context, id int) error

	CreateSession(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error)
	ListSessions(ctx context.Context, status *model.SessionStatus) ([]*model.Session, error)
	GetSession(ctx context.Context, id int) (*model.Session, error)
	UpdateSession(ctx context.Context, id int, params *model.UpdateSessionParams) (*model.Session, error)
	DeleteSession(ctx context.Context, id int) error
}

type CatalogServiceImpl struct {
	courseRepo       repository.CourseRepository
	sessionRepo      repository.SessionRepository
	registrationRepo repository.RegistrationRepository
}

func NewCatalogService(
	courseRepo repository.CourseRepository,
	sessionRepo repository.SessionRepository,
	registrationRepo repository.RegistrationRepository,
) CatalogService {
	return &CatalogServiceImpl{
		courseRepo:       courseRepo,
		sessionRepo:      sessionRepo,
		registrationRepo: registrationRepo,
	}
}

func (s *CatalogServiceImpl) CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		IsActive:        true,
	}
	return s.courseRepo.Create(ctx, course)
}

func (s *CatalogServiceImpl) ListCourses(ctx context.Context, includeInactive bool) ([]*model.Course, error) {
	return s.courseRepo.List(ctx, includeInactive)
}

func (s *CatalogServiceImpl) GetCourse(ctx context.Context, id int) (*model.Course, error) {
	return s.courseRepo.FindByID(ctx, id)
}

func (s *CatalogServiceImpl) UpdateCourse(ctx context.Context, id int, params *model.UpdateCourseParams) (*model.Course, error) {
	if _, err := s.courseRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.DurationMinutes != nil {
		updates["duration_minutes"] = *params.DurationMinutes
	}
	if params.MaxParticipants != nil {
		updates["max_participants"] = *params.MaxParticipants
	}
	if params.Price != nil {
		updates["price"] = *params.Price
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if len(updates) == 0 {
		return s.courseRepo.FindByID(ctx, id)
	}

	return s.courseRepo.Update(ctx, id, updates)
}

// DeleteCourse 軟刪除。底下還有場次就拒絕，避免孤兒場次
func (s *CatalogServiceImpl) DeleteCourse(ctx context.Context, id int) error {
	if _, err := s.courseRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.sessionRepo.CountByCourseID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrHasSessions
	}

	return s.courseRepo.Delete(ctx, id)
}

func (s *CatalogServiceImpl) CreateSession(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	course, err := s.courseRepo.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrInvalidInput
	}

	// 可預約名額在建立當下快照課程上限，之後課程調整不回溯
	session := &model.Session{
		CourseID:       req.CourseID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		AvailableSpots: course.MaxParticipants,
		Status:         model.SessionStatusScheduled,
	}
	return s.sessionRepo.Create(ctx, session)
}

func (s *CatalogServiceImpl) ListSessions(ctx context.Context, status *model.SessionStatus) ([]*model.Session, error) {
	return s.sessionRepo.List(ctx, status)
}

func (s *CatalogServiceImpl) GetSession(ctx context.Context, id int) (*model.Session, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

func (s *CatalogServiceImpl) UpdateSession(ctx context.Context, id int, params *model.UpdateSessionParams) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if params.StartTime != nil {
		updates["start_time"] = params.StartTime.UTC()
	}
	if params.EndTime != nil {
		updates["end_time"] = params.EndTime.UTC()
	}
	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, apperrors.ErrInvalidInput
		}
		updates["status"] = *params.Status
	}
	if len(updates) == 0 {
		return session, nil
	}

	start := session.StartTime
	if params.StartTime != nil {
		start = params.StartTime.UTC()
	}
	end := session.EndTime
	if params.EndTime != nil {
		end = params.EndTime.UTC()
	}
	if !end.After(start) {
		return nil, apperrors.ErrInvalidInput
	}

	return s.sessionRepo.Update(ctx, id, updates)
}

// DeleteSession 硬刪除，但只要有任何報名（含已取消）就拒絕，保留歷史
func (s *CatalogServiceImpl) DeleteSession(ctx context.Context, id int) error {
	if _, err := s.sessionRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.registrationRepo.CountBySessionID(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrHasRegistrations
	}

	return s.sessionRepo.Delete(ctx, id)
}
