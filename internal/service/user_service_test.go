package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"user-registration-api/internal/domain"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) Save(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil && u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:     "Juan Pérez",
		Email:    "juan.perez@example.com",
		Password: "Password123",
		Phones:   []PhoneInput{{Number: "1234561", CityCode: "1", CountryCode: "57"}},
	}
}

func newTestService(t *testing.T) (*UserService, *mockUserRepo, *mockTokens) {
	t.Helper()
	repo := &mockUserRepo{}
	tokens := &mockTokens{}
	svc := NewUserService(repo, defaultValidator(t), tokens)
	t.Cleanup(func() {
		repo.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})
	return svc, repo, tokens
}

func TestRegister_Success(t *testing.T) {
	svc, repo, tokens := newTestService(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	in := validInput()

	repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, nil).Once()
	tokens.On("Issue", "Juan Pérez").Return("jwt-token-123", nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == in.Name &&
			u.Email == in.Email &&
			u.Password == in.Password &&
			u.Token == "jwt-token-123" &&
			u.IsActive &&
			u.Created.Equal(now) && u.Modified.Equal(now) && u.LastLogin.Equal(now) &&
			len(u.Phones) == 1 &&
			u.Phones[0] == domain.Phone{Number: "1234561", CityCode: "1", CountryCode: "57"}
	})).Return(nil).Once()

	out, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, out.ID)
	assert.Equal(t, "jwt-token-123", out.Token)
	assert.Equal(t, now, out.Created)
	assert.Equal(t, now, out.Modified)
	assert.Equal(t, now, out.LastLogin)
	assert.True(t, out.IsActive)
}

func TestRegister_Failures(t *testing.T) {
	storageDown := errors.Join(domain.ErrStorageUnavailable, errors.New("connection refused"))

	tests := []struct {
		name        string
		mutate      func(in *RegisterInput)
		setup       func(repo *mockUserRepo, tokens *mockTokens)
		wantErr     error
		wantMsg     string
		reachesSave bool
	}{
		{
			name:    "invalid email is checked first",
			mutate:  func(in *RegisterInput) { in.Email = "email-invalido"; in.Password = "" },
			wantMsg: "Formato de correo inválido",
		},
		{
			name:    "empty password",
			mutate:  func(in *RegisterInput) { in.Password = "" },
			wantMsg: "La contraseña no cumple con los requisitos",
		},
		{
			name:   "email already registered",
			mutate: func(in *RegisterInput) {},
			setup: func(repo *mockUserRepo, _ *mockTokens) {
				repo.On("FindByEmail", mock.Anything, "juan.perez@example.com").
					Return(&domain.User{Email: "juan.perez@example.com"}, nil).Once()
			},
			wantErr: domain.ErrEmailConflict,
		},
		{
			name:   "lookup fails",
			mutate: func(in *RegisterInput) {},
			setup: func(repo *mockUserRepo, _ *mockTokens) {
				repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, storageDown).Once()
			},
			wantErr: domain.ErrStorageUnavailable,
		},
		{
			name:   "token issuing fails",
			mutate: func(in *RegisterInput) {},
			setup: func(repo *mockUserRepo, tokens *mockTokens) {
				repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil).Once()
				tokens.On("Issue", mock.Anything).Return("", errors.New("boom")).Once()
			},
		},
		{
			name:   "insert loses the race",
			mutate: func(in *RegisterInput) {},
			setup: func(repo *mockUserRepo, tokens *mockTokens) {
				repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil).Once()
				tokens.On("Issue", mock.Anything).Return("tok", nil).Once()
				repo.On("Save", mock.Anything, mock.Anything).Return(domain.ErrStorageConflict).Once()
			},
			wantErr:     domain.ErrStorageConflict,
			reachesSave: true,
		},
		{
			name:   "insert fails",
			mutate: func(in *RegisterInput) {},
			setup: func(repo *mockUserRepo, tokens *mockTokens) {
				repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil).Once()
				tokens.On("Issue", mock.Anything).Return("tok", nil).Once()
				repo.On("Save", mock.Anything, mock.Anything).Return(storageDown).Once()
			},
			wantErr:     domain.ErrStorageUnavailable,
			reachesSave: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, tokens := newTestService(t)
			if tt.setup != nil {
				tt.setup(repo, tokens)
			}
			in := validInput()
			tt.mutate(&in)

			out, err := svc.Register(context.Background(), in)
			require.Error(t, err)
			assert.Nil(t, out)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				ve, ok := domain.IsValidation(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantMsg, ve.Message)
			}
			if !tt.reachesSave {
				repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRegister_NilPhonesBecomeEmpty(t *testing.T) {
	svc, repo, tokens := newTestService(t)
	in := validInput()
	in.Phones = nil

	repo.On("FindByEmail", mock.Anything, in.Email).Return(nil, nil).Once()
	tokens.On("Issue", in.Name).Return("tok", nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Phones != nil && len(u.Phones) == 0
	})).Return(nil).Once()

	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
}
