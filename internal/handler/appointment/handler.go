package appointment

import (
	stderrors "errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/appointment"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	service    *appointment.Service
	calculator *availability.Calculator
}

func NewHandler(service *appointment.Service, calculator *availability.Calculator) *Handler {
	return &Handler{
		service:    service,
		calculator: calculator,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/doctor/:doctorId/availability", middleware.NoStore(), h.GetAvailability)

		protected := appointments.Group("", authMW.Authenticate(), middleware.NoStore())
		protected.POST("", h.CreateAppointment)
		protected.GET("", h.ListAppointments)
		protected.GET("/:id", h.GetAppointment)
		protected.PATCH("/:id/cancel", h.CancelAppointment)
		protected.PATCH("/:id/status", authMW.RequireRole(model.RoleDoctor), h.UpdateStatus)
	}
}

func (h *Handler) GetAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, errors.Validation("date is required", nil))
		return
	}
	includeBooked, _ := strconv.ParseBool(c.DefaultQuery("includeBooked", "false"))

	availability, err := h.calculator.Availability(c.Request.Context(), c.Param("doctorId"), date, includeBooked)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, availability)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	apt, err := h.service.Book(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"appointment": apt})
}

func (h *Handler) ListAppointments(c *gin.Context) {
	status := model.AppointmentStatus(c.Query("status"))
	appointments, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"appointments": appointments})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	apt, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"appointment": apt})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	var req model.CancelAppointmentRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		httputil.RespondWithBindError(c, err)
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"appointment": apt})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	apt, err := h.service.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"appointment": apt})
}
