package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"varna/internal/auth"
	"varna/internal/metrics"
	"varna/internal/registration"
	"varna/internal/store"
	"varna/internal/upload"
)

// Handler serves the public, admin and health endpoints.
type Handler struct {
	db      *store.DB
	regs    *registration.Service
	admin   auth.Admin
	tokens  TokenConfig
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// TokenConfig describes how admin tokens are signed.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func New(db *store.DB, regs *registration.Service, admin auth.Admin, tokens TokenConfig, m *metrics.Metrics, log logrus.FieldLogger) *Handler {
	return &Handler{db: db, regs: regs, admin: admin, tokens: tokens, metrics: m, log: log}
}

// ---------- Health ----------

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HealthDB reports the datastore connection state.
func (h *Handler) HealthDB(c *gin.Context) {
	state := h.db.Health(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"ok":        state == store.StateConnected,
		"state":     int(state),
		"stateText": state.String(),
	})
}

// ---------- Public registrations ----------

// RegisterIndividual accepts a JSON student registration.
func (h *Handler) RegisterIndividual(c *gin.Context) {
	var in registration.IndividualInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.metrics.Failed(metrics.KindIndividual)
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	reg, err := h.regs.RegisterIndividual(c.Request.Context(), in)
	if err != nil {
		h.registrationError(c, metrics.KindIndividual, err)
		return
	}
	h.metrics.Created(metrics.KindIndividual)
	h.log.WithFields(logrus.Fields{"id": reg.ID, "category": reg.Category}).Info("individual registration stored")
	c.JSON(http.StatusCreated, gin.H{"id": reg.ID})
}

// RegisterSchool accepts a multipart school registration with its participant sheet.
func (h *Handler) RegisterSchool(c *gin.Context) {
	header, err := c.FormFile(upload.FieldName)
	if err != nil {
		h.registrationError(c, metrics.KindSchool, registration.ErrFileRequired)
		return
	}

	var in registration.SchoolInput
	if err := c.ShouldBind(&in); err != nil {
		h.metrics.Failed(metrics.KindSchool)
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.registrationError(c, metrics.KindSchool, &registration.StorageError{Err: err})
		return
	}
	defer file.Close()

	sheet := &registration.Sheet{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	reg, err := h.regs.RegisterSchool(c.Request.Context(), in, sheet, baseURL(c.Request))
	if err != nil {
		h.registrationError(c, metrics.KindSchool, err)
		return
	}
	h.metrics.Created(metrics.KindSchool)
	h.metrics.Sheet(header.Size)
	h.log.WithFields(logrus.Fields{"id": reg.ID, "file_path": reg.FilePath}).Info("school registration stored")
	c.JSON(http.StatusCreated, gin.H{"id": reg.ID, "downloadURL": reg.DownloadURL})
}

func (h *Handler) registrationError(c *gin.Context, kind string, err error) {
	h.metrics.Failed(kind)
	log := h.log.WithError(err).WithField("kind", kind)

	var verr *registration.ValidationError
	var serr *registration.StorageError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.As(err, &serr):
		log.Error("participant sheet could not be stored")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store participant sheet"})
	default:
		log.Warn("registration not stored")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// baseURL rebuilds "<scheme>://<host>" as the client addressed this server.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// ---------- Admin ----------

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges the admin credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.Login(false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}
	if err := h.admin.Authenticate(req.Email, req.Password); err != nil {
		h.metrics.Login(false)
		h.log.WithField("ip", c.ClientIP()).Warn("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	tok, err := auth.Issue(h.admin.Email, h.tokens.Issuer, h.tokens.Secret, h.tokens.TTL)
	if err != nil {
		h.log.WithError(err).Error("token issue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	h.metrics.Login(true)
	c.JSON(http.StatusOK, gin.H{"token": tok.Value, "email": h.admin.Email})
}

func (h *Handler) ListIndividuals(c *gin.Context) {
	regs, err := h.regs.ListIndividuals(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("list individual registrations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, regs)
}

func (h *Handler) ListSchools(c *gin.Context) {
	regs, err := h.regs.ListSchools(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("list school registrations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, regs)
}
