package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"user-registration-api/internal/domain"
	"user-registration-api/internal/feature/user"
	"user-registration-api/internal/service"
	httpez "user-registration-api/internal/transport/http/ez"
)

const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "registrations_total", Help: "Registration attempts by outcome"},
	[]string{"outcome"},
)

func init() { prometheus.MustRegister(registrations) }

type Registerer interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterOutput, error)
}

type UserHandler struct {
	svc Registerer
	log *zap.Logger
}

func NewUserHandler(svc Registerer, l *zap.Logger) *UserHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserHandler{svc: svc, log: l}
}

// MountAPI 挂载 POST /registro
func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[user.RegisterReq, user.RegisterResp]{
		Method:      http.MethodPost,
		Path:        "/registro",
		Binder:      httpez.BindJSON,
		Status:      http.StatusCreated,
		Handler:     h.register,
		OnBindError: h.bindFailed,
	})
}

// 请求体不是合法 JSON 也算一次 invalid
func (h *UserHandler) bindFailed(_ *gin.Context, err error) {
	registrations.WithLabelValues(OutcomeInvalid).Inc()
	h.log.Debug("register bind failed", zap.Error(err))
}

func (h *UserHandler) register(c *gin.Context, in *user.RegisterReq) (user.RegisterResp, error) {
	out, err := h.svc.Register(c.Request.Context(), in.ToInput())
	if err != nil {
		return user.RegisterResp{}, h.mapError(err)
	}
	registrations.WithLabelValues(OutcomeCreated).Inc()
	h.log.Info("user registered", zap.String("id", out.ID.String()))
	return user.FromOutput(out), nil
}

// mapError 领域错误 → HTTP 错误，顺带记录结果
func (h *UserHandler) mapError(err error) error {
	if ve, ok := domain.IsValidation(err); ok {
		registrations.WithLabelValues(OutcomeInvalid).Inc()
		return httpez.BadRequest(ve.Message)
	}
	if errors.Is(err, domain.ErrEmailConflict) {
		registrations.WithLabelValues(OutcomeConflict).Inc()
		return httpez.Conflict(domain.MsgEmailTaken, err)
	}
	registrations.WithLabelValues(OutcomeError).Inc()
	h.log.Error("register failed", zap.Error(err))
	return httpez.Internal("", err)
}
