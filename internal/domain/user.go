package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"primaryKey;type:varchar(36)"`
	Name      string    `gorm:"size:128"`
	Email     string    `gorm:"uniqueIndex;size:191;not null"`
	Password  string    `gorm:"size:255;not null"` // stored as supplied
	Created   time.Time `gorm:"not null"`
	Modified  time.Time `gorm:"not null"`
	LastLogin time.Time `gorm:"not null"`
	Token     string    `gorm:"type:text"`
	IsActive  bool      `gorm:"not null"`

	Phones []Phone `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

// Phone 归属于唯一的 User，没有独立生命周期
type Phone struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      uuid.UUID `gorm:"type:varchar(36);index;not null"`
	Number      string    `gorm:"size:32"`
	CityCode    string    `gorm:"size:8"`
	CountryCode string    `gorm:"size:8"`
}

func (Phone) TableName() string { return "phones" }

// NewUser 构造待注册用户：三个时间戳取同一个 now，默认激活
func NewUser(name, email, password, token string, phones []Phone, now time.Time) *User {
	if phones == nil {
		phones = []Phone{}
	}
	return &User{
		Name:      name,
		Email:     email,
		Password:  password,
		Created:   now,
		Modified:  now,
		LastLogin: now,
		Token:     token,
		IsActive:  true,
		Phones:    phones,
	}
}

// UserRepository 查不到时返回 (nil, nil)
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}
