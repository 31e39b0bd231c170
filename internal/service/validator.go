package service

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"user-registration-api/internal/domain"
)

// 单次匹配上限，防止回溯型正则拖垮请求
const patternMatchTimeout = 100 * time.Millisecond

// Validator 按配置的正则整串匹配邮箱和密码
type Validator struct {
	email    *regexp2.Regexp
	password *regexp2.Regexp
}

func NewValidator(emailPattern, passwordPattern string) (*Validator, error) {
	email, err := compileFullMatch(emailPattern)
	if err != nil {
		return nil, fmt.Errorf("email pattern: %w", err)
	}
	password, err := compileFullMatch(passwordPattern)
	if err != nil {
		return nil, fmt.Errorf("password pattern: %w", err)
	}
	return &Validator{email: email, password: password}, nil
}

// ECMAScript 模式下 \d \w 只匹配 ASCII
func compileFullMatch(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternMatchTimeout
	return re, nil
}

func (v *Validator) ValidateEmail(email string) error {
	if !matches(v.email, email) {
		return &domain.ValidationError{Field: "email", Message: domain.MsgInvalidEmail}
	}
	return nil
}

func (v *Validator) ValidatePassword(password string) error {
	if !matches(v.password, password) {
		return &domain.ValidationError{Field: "password", Message: domain.MsgInvalidPassword}
	}
	return nil
}

// 超时按不匹配处理
func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
