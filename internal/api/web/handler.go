package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "leaf-doctor/internal/application"
	"leaf-doctor/internal/domain/entity"
)

const maxImageSize = 10 << 20 // 10 MB

// Handler HTTP-обработчики сессий диагностики
type Handler struct {
	diagnosis       *app.DiagnosisService
	defaultLanguage entity.Language
	logger          *zap.Logger
}

// NewHandler создаёт обработчик
func NewHandler(diagnosis *app.DiagnosisService, defaultLanguage entity.Language, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLanguage == "" {
		defaultLanguage = entity.LanguageEnglish
	}
	return &Handler{diagnosis: diagnosis, defaultLanguage: defaultLanguage, logger: logger}
}

// NewRouter собирает gin-роутер со всеми маршрутами
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/health", h.Health)
	r.POST("/sum", Sum)

	sessions := r.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.CloseSession)
	sessions.POST("/:id/image", h.UploadImage)
	sessions.POST("/:id/diagnose", h.Diagnose)
	sessions.POST("/:id/translate", h.Translate)
	sessions.PUT("/:id/language", h.SetLanguage)

	return r
}

type languageRequest struct {
	Language string `json:"language"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSession создаёт сессию, язык в теле запроса необязателен
func (h *Handler) CreateSession(c *gin.Context) {
	var req languageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	language := h.defaultLanguage
	if req.Language != "" {
		parsed, err := entity.ParseLanguage(req.Language)
		if err != nil {
			h.fail(c, err, nil)
			return
		}
		language = parsed
	}

	session, err := h.diagnosis.StartSession(c.Request.Context(), language)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, app.NewSessionView(session))
}

func (h *Handler) GetSession(c *gin.Context) {
	view, err := h.diagnosis.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) CloseSession(c *gin.Context) {
	if err := h.diagnosis.Close(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage принимает multipart-поле "file" и сразу описывает изображение
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "missing image file (form field 'file')")
		return
	}
	if file.Size > maxImageSize {
		errorJSON(c, http.StatusRequestEntityTooLarge, "image too large (max 10MB)")
		return
	}

	f, err := file.Open()
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "failed to read image")
		return
	}

	h.respond(c, func() (*entity.Session, error) {
		return h.diagnosis.Submit(c.Request.Context(), c.Param("id"), data, file.Filename)
	})
}

func (h *Handler) Diagnose(c *gin.Context) {
	h.respond(c, func() (*entity.Session, error) {
		return h.diagnosis.Diagnose(c.Request.Context(), c.Param("id"))
	})
}

func (h *Handler) Translate(c *gin.Context) {
	h.respond(c, func() (*entity.Session, error) {
		return h.diagnosis.Translate(c.Request.Context(), c.Param("id"))
	})
}

func (h *Handler) SetLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	language, err := entity.ParseLanguage(req.Language)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	h.respond(c, func() (*entity.Session, error) {
		return h.diagnosis.SetLanguage(c.Request.Context(), c.Param("id"), language)
	})
}

// respond выполняет операцию над сессией и отдаёт её представление
func (h *Handler) respond(c *gin.Context, op func() (*entity.Session, error)) {
	session, err := op()
	if err != nil {
		h.fail(c, err, session)
		return
	}
	c.JSON(http.StatusOK, app.NewSessionView(session))
}

// fail отвечает ошибкой, при наличии сессии прикладывает её состояние
func (h *Handler) fail(c *gin.Context, err error, session *entity.Session) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{"error": err.Error()}
	if session != nil {
		body["session"] = app.NewSessionView(session)
	}
	c.JSON(status, body)
}

func statusOf(err error) int {
	var inferenceErr *entity.InferenceError
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUnsupportedImage),
		errors.Is(err, entity.ErrEmptyImage),
		errors.Is(err, entity.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrDescriptionMissing):
		return http.StatusConflict
	case errors.Is(err, entity.ErrSessionBusy):
		return http.StatusServiceUnavailable
	case errors.As(err, &inferenceErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
