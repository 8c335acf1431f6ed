package api

import (
	"context"

	"referral_app/internal/model"
	"referral_app/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) Register(ctx context.Context, in service.RegisterInput) (*model.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockAccountService) Login(ctx context.Context, emailOrUsername, password string) (*model.Session, error) {
	args := m.Called(ctx, emailOrUsername, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockAccountService) Me(ctx context.Context, accountID uuid.UUID) (*model.AccountProfile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountProfile), args.Error(1)
}

func (m *mockAccountService) Referrals(ctx context.Context, accountID uuid.UUID) ([]*model.ReferredAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReferredAccount), args.Error(1)
}

func (m *mockAccountService) UpdatePassword(ctx context.Context, accountID uuid.UUID, password string) error {
	args := m.Called(ctx, accountID, password)
	return args.Error(0)
}

func (m *mockAccountService) Exists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

type mockFormService struct {
	mock.Mock
}

func (m *mockFormService) Submit(ctx context.Context, answers model.FormData, referrerUsername string) error {
	args := m.Called(ctx, answers, referrerUsername)
	return args.Error(0)
}

type mockDashboardService struct {
	mock.Mock
}

func (m *mockDashboardService) Dashboard(ctx context.Context, username string) (*model.Dashboard, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}

func (m *mockDashboardService) Watch(accountID uuid.UUID) (<-chan struct{}, func()) {
	args := m.Called(accountID)
	return args.Get(0).(<-chan struct{}), args.Get(1).(func())
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(context.Context) error {
	return p.err
}
