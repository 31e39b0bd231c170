package user

import (
	"time"

	"github.com/google/uuid"

	"user-registration-api/internal/service"
)

// PhoneReq 外部字段名固定为 number / citycode / contrycode
type PhoneReq struct {
	Number      string `json:"number"`
	CityCode    string `json:"citycode"`
	CountryCode string `json:"contrycode"`
}

type RegisterReq struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phones   []PhoneReq `json:"phones"`
}

func (r *RegisterReq) ToInput() service.RegisterInput {
	phones := make([]service.PhoneInput, 0, len(r.Phones))
	for _, p := range r.Phones {
		phones = append(phones, service.PhoneInput{Number: p.Number, CityCode: p.CityCode, CountryCode: p.CountryCode})
	}
	return service.RegisterInput{Name: r.Name, Email: r.Email, Password: r.Password, Phones: phones}
}

// RegisterResp 不回传 name / email / password / phones
type RegisterResp struct {
	ID        uuid.UUID `json:"id"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	LastLogin time.Time `json:"lastLogin"`
	Token     string    `json:"token"`
	IsActive  bool      `json:"isActive"`
}

func FromOutput(o *service.RegisterOutput) RegisterResp {
	return RegisterResp{
		ID:        o.ID,
		Created:   o.Created,
		Modified:  o.Modified,
		LastLogin: o.LastLogin,
		Token:     o.Token,
		IsActive:  o.IsActive,
	}
}
