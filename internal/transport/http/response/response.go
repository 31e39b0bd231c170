package response

// ErrorBody 所有失败响应的统一格式
type ErrorBody struct {
	Mensaje string `json:"mensaje"`
}

// Error 构造失败响应；msg 为空时用状态码的默认文案
func Error(status int, msg string) ErrorBody {
	if msg == "" {
		msg = MsgOf(status)
	}
	return ErrorBody{Mensaje: msg}
}
