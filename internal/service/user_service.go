package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"user-registration-api/internal/domain"
)

type CredentialValidator interface {
	ValidateEmail(email string) error
	ValidatePassword(password string) error
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type PhoneInput struct {
	Number      string
	CityCode    string
	CountryCode string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneInput
}

// RegisterOutput 不含 name / email / password / phones
type RegisterOutput struct {
	ID        uuid.UUID
	Token     string
	Created   time.Time
	Modified  time.Time
	LastLogin time.Time
	IsActive  bool
}

type UserService struct {
	repo      domain.UserRepository
	validator CredentialValidator
	tokens    TokenIssuer
	now       func() time.Time
}

func NewUserService(repo domain.UserRepository, v CredentialValidator, tokens TokenIssuer) *UserService {
	return &UserService{repo: repo, validator: v, tokens: tokens, now: time.Now}
}

// Register 顺序固定：校验邮箱 → 校验密码 → 查重 → 签发令牌 → 落库。
// 任何一步失败直接返回，失败时不写库。
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	if err := s.validator.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailConflict
	}

	token, err := s.tokens.Issue(in.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	phones := make([]domain.Phone, 0, len(in.Phones))
	for _, p := range in.Phones {
		phones = append(phones, domain.Phone{Number: p.Number, CityCode: p.CityCode, CountryCode: p.CountryCode})
	}
	u := domain.NewUser(in.Name, in.Email, in.Password, token, phones, s.now())

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	return &RegisterOutput{
		ID:        u.ID,
		Token:     u.Token,
		Created:   u.Created,
		Modified:  u.Modified,
		LastLogin: u.LastLogin,
		IsActive:  u.IsActive,
	}, nil
}
