package domain

import (
	"errors"
	"fmt"
)

const (
	MsgInvalidEmail    = "Formato de correo inválido"
	MsgInvalidPassword = "La contraseña no cumple con los requisitos"
	MsgEmailTaken      = "El correo ya está registrado"
)

// ValidationError 的 Message 会原样返回给调用方
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrEmailConflict = errors.New(MsgEmailTaken)
	// ErrStorageConflict 是唯一约束在写入时触发的冲突，归类为 ErrEmailConflict
	ErrStorageConflict    = fmt.Errorf("%w: unique constraint violated", ErrEmailConflict)
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
