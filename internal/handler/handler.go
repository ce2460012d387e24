// Package handler maps the HTTP API onto the domain services.
package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mediguru/internal/account"
	"mediguru/internal/apperr"
	"mediguru/internal/auth"
	"mediguru/internal/config"
	"mediguru/internal/httpmiddleware"
	"mediguru/internal/ingest"
	"mediguru/internal/meeting"
	"mediguru/internal/record"
	"mediguru/internal/statistics"
	"mediguru/internal/validate"
)

// Accounts logs administrators in.
type Accounts interface {
	Login(ctx context.Context, email, password string) (account.Session, error)
}

// Meetings creates and lists meetings.
type Meetings interface {
	Create(ctx context.Context, fields map[string]any, createdBy int64) (*meeting.Meeting, error)
	List(ctx context.Context) ([]meeting.Meeting, error)
}

// Statistics reports per-meeting figures.
type Statistics interface {
	Compute(ctx context.Context, meetingID int64, kind record.Kind) (statistics.Report, error)
}

// Uploads ingests sheets and reports their status.
type Uploads interface {
	Ingest(ctx context.Context, up ingest.Upload) (ingest.Result, error)
	Status(ctx context.Context, meetingID int64) (ingest.StatusReport, error)
}

// Checker reports whether a dependency is reachable.
type Checker interface {
	Healthy(ctx context.Context) bool
}

// Handler holds the services behind the routes.
type Handler struct {
	accounts     Accounts
	meetings     Meetings
	stats        Statistics
	uploads      Uploads
	display      config.Display
	exposeErrors bool

	db    Checker
	redis Checker
}

// Options configures a Handler.
type Options struct {
	Accounts     Accounts
	Meetings     Meetings
	Statistics   Statistics
	Uploads      Uploads
	Display      config.Display
	ExposeErrors bool
	DB           Checker
	Redis        Checker
}

// New creates a Handler from its options.
func New(o Options) *Handler {
	return &Handler{
		accounts:     o.Accounts,
		meetings:     o.Meetings,
		stats:        o.Statistics,
		uploads:      o.Uploads,
		display:      o.Display,
		exposeErrors: o.ExposeErrors,
		db:           o.DB,
		redis:        o.Redis,
	}
}

// fail writes err as {"error": msg}. Server-side failures are logged with
// the request id, and the body stays opaque unless errors are exposed.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := apperr.Message(err, h.exposeErrors)
	if status >= http.StatusInternalServerError {
		id := httpmiddleware.GetRequestID(c)
		log.Printf("request %s %s %s failed: %v", id, c.Request.Method, c.Request.URL.Path, err)
		if !h.exposeErrors {
			msg = fmt.Sprintf("%s: internal error (request %s)", msg, id)
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

// MethodNotAllowed answers routes hit with an unsupported verb.
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// ---------- Health ----------

// Healthz reports database and Redis reachability. Only a database outage
// makes it answer 503.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbOK := h.db != nil && h.db.Healthy(ctx)
	redisOK := h.redis != nil && h.redis.Healthy(ctx)
	status, label := http.StatusOK, "ok"
	if !dbOK {
		status, label = http.StatusServiceUnavailable, "degraded"
	}
	c.JSON(status, gin.H{"status": label, "db": dbOK, "redis": redisOK})
}

// ---------- Login ----------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks email and password and returns the user with a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation("Email and password are required"))
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           sess.User.ID,
		"name":         sess.User.Name,
		"email":        sess.User.Email,
		"role":         sess.User.Role,
		"joinedDate":   sess.User.CreatedAt,
		"lastLogin":    sess.LastLogin.Format(time.RFC3339),
		"isActive":     true,
		"token":        sess.Tokens.AccessToken,
		"refreshToken": sess.Tokens.RefreshToken,
	})
}

// ---------- Meetings ----------

// CreateMeeting schedules a meeting for the logged-in administrator.
func (h *Handler) CreateMeeting(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		h.fail(c, apperr.Auth("Token is required"))
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || fields == nil {
		// An unreadable body is reported as every field missing.
		fields = map[string]any{}
	}
	m, err := h.meetings.Create(c.Request.Context(), fields, claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"id":              m.ID,
		"name":            m.Name,
		"date":            m.Date,
		"time":            m.Time,
		"topic":           m.Topic,
		"hosters":         m.Hosters,
		"created_by":      m.CreatedBy,
		"created_by_name": m.CreatedByName,
		"created_at":      m.CreatedAt,
		"status":          meeting.StatusUpcoming,
		"message":         "Meeting created successfully",
	})
}

type meetingItem struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Name          string         `json:"name"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	Topic         string         `json:"topic"`
	Hosters       string         `json:"hosters"`
	Instructor    string         `json:"instructor"`
	CreatedBy     int64          `json:"created_by"`
	CreatedByName string         `json:"created_by_name"`
	CreatedByRole string         `json:"created_by_role"`
	CreatedAt     time.Time      `json:"created_at"`
	Status        meeting.Status `json:"status"`
	Location      string         `json:"location"`
	Duration      string         `json:"duration"`
	Attendees     int            `json:"attendees"`
	MaxAttendees  int            `json:"maxAttendees"`
	Category      string         `json:"category"`
}

// ListMeetings returns every meeting with its status and display defaults.
func (h *Handler) ListMeetings(c *gin.Context) {
	list, err := h.meetings.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]meetingItem, 0, len(list))
	for _, m := range list {
		items = append(items, meetingItem{
			ID:            m.ID,
			Title:         m.Name,
			Name:          m.Name,
			Date:          m.Date,
			Time:          m.Time,
			Topic:         m.Topic,
			Hosters:       m.Hosters,
			Instructor:    m.Hosters,
			CreatedBy:     m.CreatedBy,
			CreatedByName: m.CreatedByName,
			CreatedByRole: m.CreatedByRole,
			CreatedAt:     m.CreatedAt,
			Status:        m.Status,
			Location:      h.display.Location,
			Duration:      h.display.Duration,
			Attendees:     h.display.Attendees,
			MaxAttendees:  h.display.MaxAttendees,
			Category:      h.display.Category,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"meetings": items,
		"total":    len(items),
		"message":  "Meetings fetched successfully",
	})
}

// ---------- Statistics ----------

// MeetingStatistics returns the rows and figures of one record type for a meeting.
func (h *Handler) MeetingStatistics(c *gin.Context) {
	id := meetingID(c.Query("meetingId"))
	if id <= 0 {
		h.fail(c, apperr.Validation("Meeting ID is required"))
		return
	}
	kind := record.Kind(c.Query("type"))
	rep, err := h.stats.Compute(c.Request.Context(), id, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"type":       rep.Type,
		"meeting_id": rep.MeetingID,
		"data":       rep.Data,
		"statistics": rep.Statistics,
	})
}

// ---------- Uploads ----------

type uploadRequest struct {
	MeetingID any              `json:"meetingId"`
	Type      string           `json:"type"`
	FileName  string           `json:"fileName"`
	Data      []map[string]any `json:"data"`
}

// Upload replaces a meeting's records of one type with the submitted rows.
// Rejected rows still yield 200 with a warning.
func (h *Handler) Upload(c *gin.Context) {
	claims, ok := auth.FromContext(c)
	if !ok {
		h.fail(c, apperr.Auth("Token is required"))
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Validation("Invalid parameters. meetingId, type, and data are required."))
		return
	}
	res, err := h.uploads.Ingest(c.Request.Context(), ingest.Upload{
		MeetingID:  meetingID(validate.Text(req.MeetingID)),
		Kind:       record.Kind(req.Type),
		FileName:   req.FileName,
		UploaderID: claims.UserID,
		Rows:       req.Data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{
		"success":         true,
		"message":         res.Message(),
		"processed_count": res.Processed,
		"total_count":     res.Total,
		"file_name":       res.FileName,
		"saved_file":      res.SavedFile,
		"errors":          res.Errors,
	}
	if res.Partial() {
		body["warning"] = "Some rows could not be processed. Check errors for details."
	}
	c.JSON(http.StatusOK, body)
}

// UploadStatus reports which record types have been uploaded for a meeting.
func (h *Handler) UploadStatus(c *gin.Context) {
	id := meetingID(c.Query("meetingId"))
	if id <= 0 {
		h.fail(c, apperr.Validation("Meeting ID is required"))
		return
	}
	rep, err := h.uploads.Status(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"meeting_id":    rep.MeetingID,
		"upload_status": rep.UploadStatus,
		"file_info":     rep.FileInfo,
		"summary":       rep.Summary,
	})
}

// meetingID reads a positive id, or 0.
func meetingID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
