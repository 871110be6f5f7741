package doctor

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/pkg/httputil"
)

type Handler struct {
	svc *doctor.Service
}

func NewHandler(svc *doctor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", middleware.Revalidate(), h.ListDoctors)

		me := doctors.Group("/me", authMW.Authenticate(), authMW.RequireRole(model.RoleDoctor), middleware.NoStore())
		me.PUT("/schedule", h.UpdateSchedule)
		me.PUT("/availability", h.UpdateAvailability)

		doctors.GET("/:id", middleware.Revalidate(), h.GetDoctor)
	}
}

func (h *Handler) ListDoctors(c *gin.Context) {
	filters := model.DoctorFilters{
		Specialization: c.Query("specialization"),
		Search:         c.Query("search"),
		Page:           queryInt(c, "page"),
		Limit:          queryInt(c, "limit"),
	}

	doctors, total, applied, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"doctors":    doctors,
		"pagination": httputil.NewPagination(applied.Page, applied.Limit, total),
	})
}

func (h *Handler) GetDoctor(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"doctor": d})
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req model.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	d, err := h.svc.UpdateSchedule(c.Request.Context(), middleware.CurrentUser(c), req.Schedule)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"doctor": d})
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	d, err := h.svc.SetAvailability(c.Request.Context(), middleware.CurrentUser(c), *req.IsAvailable)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"doctor": d})
}

// queryInt reads a non-negative integer query param; junk reads as zero.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
