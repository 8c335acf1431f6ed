package service

import (
	"context"
	"strings"
	"testing"

	"referral_app/internal/model"
	"referral_app/internal/repository"
	"referral_app/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type formMocks struct {
	repo     *mocks.MockFormRepository
	hasher   *mocks.MockPasswordHasher
	notifier *mocks.MockLedgerNotifier
}

func newFormService() (*FormService, *formMocks) {
	m := &formMocks{
		repo:     &mocks.MockFormRepository{},
		hasher:   &mocks.MockPasswordHasher{},
		notifier: &mocks.MockLedgerNotifier{},
	}
	return NewFormService(m.repo, m.hasher, m.notifier), m
}

func TestFormService_Submit(t *testing.T) {
	alice := &model.Account{ID: uuid.New(), Name: "Alice", Username: "alice", Email: "a@x.com"}
	bob := &model.Account{ID: uuid.New(), Name: "Bob", Username: "bob", Email: "b@x.com"}

	tests := []struct {
		name       string
		answers    model.FormData
		referrer   string
		mockSetup  func(m *formMocks)
		validation string
	}{
		{
			name:       "Missing email",
			answers:    model.FormData{"name": "Bob"},
			mockSetup:  func(m *formMocks) {},
			validation: "Name and email are required",
		},
		{
			name:       "Email is not a string",
			answers:    model.FormData{"name": "Bob", "email": 42},
			mockSetup:  func(m *formMocks) {},
			validation: "Name and email are required",
		},
		{
			name:       "Malformed email",
			answers:    model.FormData{"name": "Bob", "email": "bob"},
			mockSetup:  func(m *formMocks) {},
			validation: "Invalid email address",
		},
		{
			name:     "Existing account with referrer",
			answers:  model.FormData{"name": "Bob", "email": "b@x.com", "q1": "yes", "referrerUsername": "alice"},
			referrer: "alice",
			mockSetup: func(m *formMocks) {
				existing := *bob
				m.repo.On("GetAccountByUsername", mock.Anything, "alice").Return(alice, nil)
				m.repo.On("GetAccountByEmail", mock.Anything, "b@x.com").Return(&existing, nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					_, hasRef := a.FormData["referrerUsername"]
					return a.ID == bob.ID && a.FormData["q1"] == "yes" && !hasRef
				}), &alice.ID).Return(bob, nil)
				m.notifier.On("Publish", alice.ID).Return()
			},
		},
		{
			name:     "New account gets derived username",
			answers:  model.FormData{"name": "Dana", "email": "dana@x.com"},
			referrer: "",
			mockSetup: func(m *formMocks) {
				m.repo.On("GetAccountByEmail", mock.Anything, "dana@x.com").Return(nil, repository.ErrNotFound)
				m.repo.On("UsernameExists", mock.Anything, "dana").Return(false, nil)
				m.hasher.On("Placeholder").Return("placeholder", nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					return a.Username == "dana" && a.PasswordHash == "placeholder" && a.Name == "Dana"
				}), (*uuid.UUID)(nil)).Return(&model.Account{ID: uuid.New()}, nil)
			},
		},
		{
			name:     "Taken username gets a suffix",
			answers:  model.FormData{"name": "Bob", "email": "bob@y.com"},
			referrer: "",
			mockSetup: func(m *formMocks) {
				m.repo.On("GetAccountByEmail", mock.Anything, "bob@y.com").Return(nil, repository.ErrNotFound)
				m.repo.On("UsernameExists", mock.Anything, "bob").Return(true, nil)
				m.repo.On("UsernameExists", mock.Anything, mock.MatchedBy(func(u string) bool {
					return strings.HasPrefix(u, "bob-") && len(u) == len("bob-")+usernameSuffixLength
				})).Return(false, nil)
				m.hasher.On("Placeholder").Return("placeholder", nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
					return strings.HasPrefix(a.Username, "bob-")
				}), (*uuid.UUID)(nil)).Return(&model.Account{ID: uuid.New()}, nil)
			},
		},
		{
			name:     "Unknown referrer is skipped",
			answers:  model.FormData{"name": "Bob", "email": "b@x.com"},
			referrer: "ghost",
			mockSetup: func(m *formMocks) {
				m.repo.On("GetAccountByUsername", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
				m.repo.On("GetAccountByEmail", mock.Anything, "b@x.com").Return(bob, nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).Return(bob, nil)
			},
		},
		{
			name:     "Self referral does not notify",
			answers:  model.FormData{"name": "Bob", "email": "b@x.com"},
			referrer: "bob",
			mockSetup: func(m *formMocks) {
				m.repo.On("GetAccountByUsername", mock.Anything, "bob").Return(bob, nil)
				m.repo.On("GetAccountByEmail", mock.Anything, "b@x.com").Return(bob, nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.Anything, &bob.ID).Return(bob, nil)
			},
		},
		{
			name:     "Retries when the derived username is taken concurrently",
			answers:  model.FormData{"name": "Eve", "email": "eve@x.com"},
			referrer: "",
			mockSetup: func(m *formMocks) {
				m.repo.On("GetAccountByEmail", mock.Anything, "eve@x.com").Return(nil, repository.ErrNotFound)
				m.repo.On("UsernameExists", mock.Anything, "eve").Return(false, nil)
				m.hasher.On("Placeholder").Return("placeholder", nil)
				m.repo.On("SaveFormSubmission", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).
					Return(nil, repository.ErrDuplicate).Once()
				m.repo.On("SaveFormSubmission", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).
					Return(&model.Account{ID: uuid.New()}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newFormService()
			tt.mockSetup(m)

			err := svc.Submit(context.Background(), tt.answers, tt.referrer)

			if tt.validation != "" {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.validation, vErr.Message)
			} else {
				require.NoError(t, err)
			}

			m.repo.AssertExpectations(t)
			m.hasher.AssertExpectations(t)
			m.notifier.AssertExpectations(t)
		})
	}
}

func TestFormService_Submit_NoFreeUsername(t *testing.T) {
	svc, m := newFormService()
	m.repo.On("GetAccountByEmail", mock.Anything, "bob@x.com").Return(nil, repository.ErrNotFound)
	m.repo.On("UsernameExists", mock.Anything, mock.Anything).Return(true, nil)

	err := svc.Submit(context.Background(), model.FormData{"name": "Bob", "email": "bob@x.com"}, "")
	assert.ErrorIs(t, err, ErrNoFreeUsername)
	m.repo.AssertNumberOfCalls(t, "UsernameExists", usernameAttempts)
}
