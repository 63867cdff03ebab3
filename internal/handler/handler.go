// Package handler exposes the registration, scanning, and admin surfaces
// over gin.
package handler

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"eventcheck/internal/attendance"
	"eventcheck/internal/auth"
	"eventcheck/internal/config"
	"eventcheck/internal/feed"
	"eventcheck/internal/identity"
	"eventcheck/internal/queue"
	"eventcheck/internal/registration"
	"eventcheck/internal/report"
)

// Handler wires the services to the HTTP routes.
type Handler struct {
	directory *registration.Service
	marking   *attendance.Service
	feed      *feed.Service
	queue     queue.Queue
	cfg       config.App
}

// New creates a handler. q may be nil when no worker is running.
func New(directory *registration.Service, marking *attendance.Service, feedSvc *feed.Service, q queue.Queue, cfg config.App) *Handler {
	return &Handler{directory: directory, marking: marking, feed: feedSvc, queue: q, cfg: cfg}
}

// Routes registers all API routes on r.
func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/participants/register", h.RegisterParticipant)
	api.GET("/participants", h.ListParticipants)
	api.GET("/participants/:registrationId", h.GetParticipant)
	api.DELETE("/participants/:id", h.DeactivateParticipant)

	api.POST("/attendance/scan", h.Scan)
	api.GET("/attendance", h.ListAttendance)
	api.GET("/attendance/stats", h.Stats)
	api.GET("/attendance/participant/:registrationId", h.ParticipantAttendance)

	api.POST("/admin/login", h.AdminLogin)
	admin := api.Group("/admin", auth.AdminAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	admin.GET("/dashboard", h.Dashboard)
	admin.GET("/live-feed", h.LiveFeed)
	admin.GET("/analytics", h.Analytics)
	admin.GET("/export/excel", h.Export)
}

// ---------- Participants ----------

type registerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// RegisterParticipant handles POST /api/participants/register.
func (h *Handler) RegisterParticipant(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Name and email are required"})
		return
	}

	p, err := h.directory.Register(c.Request.Context(), req.Name, req.Email)
	if errors.Is(err, registration.ErrDuplicateEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
		return
	}
	if err != nil {
		log.Printf("registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Registration failed"})
		return
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Registration successful",
		"participant": p,
	})
}

// ListParticipants handles GET /api/participants. QR codes are excluded from
// the list view.
func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.directory.ListActive(c.Request.Context(), 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch participants"})
		return
	}
	if participants == nil {
		participants = []registration.Participant{}
	}
	for i := range participants {
		participants[i].QRCode = ""
	}
	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"total":        len(participants),
	})
}

// GetParticipant handles GET /api/participants/:registrationId.
func (h *Handler) GetParticipant(c *gin.Context) {
	p, err := h.directory.FindByRegistrationID(c.Request.Context(), c.Param("registrationId"))
	if errors.Is(err, registration.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p})
}

// DeactivateParticipant handles DELETE /api/participants/:id (soft delete).
func (h *Handler) DeactivateParticipant(c *gin.Context) {
	err := h.directory.Deactivate(c.Request.Context(), c.Param("id"))
	if errors.Is(err, registration.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant deleted successfully"})
}

// ---------- Attendance ----------

type scanRequest struct {
	QRData    string `json:"qrData" binding:"required"`
	ScannedBy string `json:"scannedBy"`
	Location  string `json:"location"`
}

// Scan handles POST /api/attendance/scan.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "QR code data is required"})
		return
	}

	rec, err := h.marking.Mark(c.Request.Context(), req.QRData, req.ScannedBy, req.Location)
	if err != nil {
		var marked *attendance.AlreadyMarkedError
		switch {
		case errors.As(err, &marked):
			scansTotal.WithLabelValues("already_marked").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"message":    "Attendance already marked for today",
				"attendance": marked.Existing,
			})
		case errors.Is(err, attendance.ErrParticipantNotFound):
			scansTotal.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, gin.H{"message": "Participant not found or inactive"})
		case errors.Is(err, identity.ErrMalformedPayload):
			scansTotal.WithLabelValues("malformed").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid QR code format"})
		default:
			scansTotal.WithLabelValues("error").Inc()
			log.Printf("scan failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark attendance"})
		}
		return
	}

	scansTotal.WithLabelValues("success").Inc()
	if h.queue != nil {
		if err := h.queue.Publish(c.Request.Context(), queue.Message{Type: queue.TypeScan, Body: []byte(rec.ID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Attendance marked successfully",
		"attendance": rec,
	})
}

// ListAttendance handles GET /api/attendance with date/status/limit/page
// filters.
func (h *Handler) ListAttendance(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	f := attendance.Filter{
		Day:    day,
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 100),
		Page:   intQuery(c, "page", 1),
	}
	records, total, err := h.marking.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch attendance"})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	totalPages := 0
	if f.Limit > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}
	c.JSON(http.StatusOK, gin.H{
		"attendance": records,
		"total":      total,
		"page":       f.Page,
		"limit":      f.Limit,
		"totalPages": totalPages,
	})
}

// Stats handles GET /api/attendance/stats with an optional date filter.
func (h *Handler) Stats(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	stats, err := h.feed.SummaryStats(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch attendance statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ParticipantAttendance handles GET /api/attendance/participant/:registrationId.
func (h *Handler) ParticipantAttendance(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	participant, records, err := h.marking.History(c.Request.Context(), c.Param("registrationId"), day)
	if errors.Is(err, attendance.ErrParticipantNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Participant not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch participant attendance"})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	participant.QRCode = ""
	c.JSON(http.StatusOK, gin.H{
		"participant": participant,
		"attendance":  records,
	})
}

// ---------- Admin ----------

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin handles POST /api/admin/login, exchanging configured admin
// credentials for a JWT pair.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	tokens, err := auth.Issue(req.Username, auth.RoleAdmin, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// Dashboard handles GET /api/admin/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.feed.SummaryStats(ctx, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics"})
		return
	}
	recent, _, err := h.marking.List(ctx, attendance.Filter{Limit: 10})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch dashboard statistics"})
		return
	}
	if recent == nil {
		recent = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"today":            stats,
		"recentAttendance": recent,
	})
}

// LiveFeed handles GET /api/admin/live-feed.
func (h *Handler) LiveFeed(c *gin.Context) {
	result, err := h.feed.LiveFeed(c.Request.Context(), intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch live attendance feed"})
		return
	}
	if result.Entries == nil {
		result.Entries = []feed.Entry{}
	}
	c.JSON(http.StatusOK, result)
}

// Analytics handles GET /api/admin/analytics?days=N.
func (h *Handler) Analytics(c *gin.Context) {
	a, err := h.feed.Analytics(c.Request.Context(), intQuery(c, "days", 7))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch analytics"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// Export handles GET /api/admin/export/excel. The date filter defaults to
// today; format is xlsx or csv.
func (h *Handler) Export(c *gin.Context) {
	day, ok := h.dayParam(c)
	if !ok {
		return
	}
	if day == "" {
		day = attendance.DayBucket(time.Now())
	}
	rows, err := h.feed.ExportRows(c.Request.Context(), day, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to export attendance data"})
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	c.Header("Content-Type", report.ContentType(format))
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(format, time.Now())+`"`)
	if format == "csv" {
		err = report.WriteCSV(c.Writer, rows)
	} else {
		err = report.WriteXLSX(c.Writer, rows)
	}
	if err != nil {
		log.Printf("export write failed: %v", err)
	}
}

// ---------- helpers ----------

// dayParam validates the optional date query parameter. Returns false after
// writing a 400 when the date is unparseable.
func (h *Handler) dayParam(c *gin.Context) (string, bool) {
	raw := c.Query("date")
	if raw == "" {
		return "", true
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return raw, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
