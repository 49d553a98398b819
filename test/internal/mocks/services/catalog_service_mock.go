package services

import (
	"context"

	"go-gin-course-booking/internal/model"

	"github.com/stretchr/testify/mock"
)

type CatalogServiceMock struct {
	mock.Mock
}

func NewCatalogServiceMock() *CatalogServiceMock {
	return &CatalogServiceMock{}
}

func (m *CatalogServiceMock) CreateCourse(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *CatalogServiceMock) ListCourses(ctx context.Context, includeInactive bool) ([]*model.Course, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Course), args.Error(1)
}

func (m *CatalogServiceMock) GetCourse(ctx context.Context, id int) (*model.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *CatalogServiceMock) UpdateCourse(ctx context.Context, id int, params *model.UpdateCourseParams) (*model.Course, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *CatalogServiceMock) DeleteCourse(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CatalogServiceMock) CreateSession(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *CatalogServiceMock) ListSessions(ctx context.Context, status *model.SessionStatus) ([]*model.Session, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Session), args.Error(1)
}

func (m *CatalogServiceMock) GetSession(ctx context.Context, id int) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *CatalogServiceMock) UpdateSession(ctx context.Context, id int, params *model.UpdateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *CatalogServiceMock) DeleteSession(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
