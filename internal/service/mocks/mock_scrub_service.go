package mocks

import (
	"context"

	"textscrub/internal/model"
	"textscrub/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockScrubService struct {
	mock.Mock
}

func (m *MockScrubService) Scan(ctx context.Context) (*model.ScanResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanResult), args.Error(1)
}

func (m *MockScrubService) Apply(ctx context.Context, req service.ApplyRequest) (*model.ApplyResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplyResult), args.Error(1)
}

func (m *MockScrubService) Audit(ctx context.Context) (*model.AuditReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditReport), args.Error(1)
}
