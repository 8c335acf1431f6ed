package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hash, password string) (bool, error) {
	args := m.Called(hash, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) Placeholder() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(accountID uuid.UUID, email string) (string, error) {
	args := m.Called(accountID, email)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendReferralLink(to, name, link string) error {
	args := m.Called(to, name, link)
	return args.Error(0)
}

type MockLedgerNotifier struct {
	mock.Mock
}

func (m *MockLedgerNotifier) Publish(accountID uuid.UUID) {
	m.Called(accountID)
}

type MockLedgerWatcher struct {
	mock.Mock
}

func (m *MockLedgerWatcher) Subscribe(accountID uuid.UUID) (<-chan struct{}, func()) {
	args := m.Called(accountID)
	return args.Get(0).(<-chan struct{}), args.Get(1).(func())
}
