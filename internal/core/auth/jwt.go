package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes HS256 至少 256 bit 密钥
const MinSecretBytes = 32

var ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretBytes)

// JWTer 签发 HS256 令牌；构造后只读，可并发使用
type JWTer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTer(secret, issuer string, ttl time.Duration) (*JWTer, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &JWTer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (j *JWTer) TTL() time.Duration { return j.ttl }

// Key 校验用的对称密钥
func (j *JWTer) Key() []byte { return j.secret }

// Issue 生成 sub=subject、exp=now+ttl 的令牌
func (j *JWTer) Issue(subject string) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func (j *JWTer) Parse(tokenStr string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(60 * time.Second),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*jwt.RegisteredClaims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
