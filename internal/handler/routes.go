package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on r. Everything under /api except login
// goes through requireAuth.
func (h *Handler) Register(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(MethodNotAllowed)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/login", h.Login)

	secured := api.Group("", requireAuth)
	secured.GET("/meetings", h.ListMeetings)
	secured.POST("/meetings", h.CreateMeeting)
	secured.GET("/meetings/statistics", h.MeetingStatistics)
	secured.POST("/uploads", h.Upload)
	secured.GET("/uploads/status", h.UploadStatus)
}
