package ez

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	resp "user-registration-api/internal/transport/http/response"
)

type EZ struct{ g gin.IRoutes }

func New(g gin.IRoutes) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// AErr 携带 HTTP 状态码和对外文案；Err 只进日志
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func NotFound(msg string) error   { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string, err error) error {
	return &AErr{Code: http.StatusConflict, Msg: msg, Err: err}
}
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action 一个接口的声明：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)

	// OnBindError 可选，入参绑定失败时回调（响应已由 ez 写出）
	OnBindError func(c *gin.Context, err error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}

	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		default:
		}
		if bindErr != nil {
			_ = c.Error(bindErr).SetType(gin.ErrorTypeBind)
			if a.OnBindError != nil {
				defer a.OnBindError(c, bindErr)
			}
			var tooLarge *http.MaxBytesError
			if errors.As(bindErr, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, ""))
				return
			}
			c.JSON(http.StatusBadRequest, resp.Error(http.StatusBadRequest, ""))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			WriteError(c, err)
			return
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

// WriteError 统一错误映射：请求超时 504，AErr 按其状态码，其余一律 500
func WriteError(c *gin.Context, err error) {
	var ae *AErr
	if errors.Is(err, context.DeadlineExceeded) {
		ae = &AErr{Code: http.StatusGatewayTimeout, Err: err}
	} else if !errors.As(err, &ae) {
		ae = &AErr{Code: http.StatusInternalServerError, Err: err}
	}
	if ae.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(ae.Code, resp.Error(ae.Code, ""))
		return
	}
	c.JSON(ae.Code, resp.Error(ae.Code, ae.Msg))
}
