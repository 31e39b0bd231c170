package response

import "net/http"

// StatusMsgMap 状态码默认文案
var StatusMsgMap = map[int]string{
	http.StatusBadRequest:            "Solicitud inválida",
	http.StatusNotFound:              "Recurso no encontrado",
	http.StatusConflict:              "El correo ya está registrado",
	http.StatusRequestEntityTooLarge: "Cuerpo de la solicitud demasiado grande",
	http.StatusTooManyRequests:       "Demasiadas solicitudes",
	http.StatusInternalServerError:   "Error interno del servidor",
	http.StatusServiceUnavailable:    "Servicio no disponible",
	http.StatusGatewayTimeout:        "Tiempo de espera agotado",
}

func MsgOf(status int) string {
	if m, ok := StatusMsgMap[status]; ok {
		return m
	}
	return http.StatusText(status)
}
