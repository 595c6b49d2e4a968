package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"lensfolio/api/internal/config"
	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/middleware"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
	"lensfolio/api/internal/service"
	"lensfolio/api/internal/storage"
	"lensfolio/api/internal/views"
)

// Narrow views of the repositories and object store, covering exactly what
// the handlers call.
type imageCatalog interface {
	GetByID(ctx context.Context, id string) (models.Image, error)
	List(ctx context.Context, category string) ([]models.Image, error)
	ListBySection(ctx context.Context, section models.DisplaySection, category string) ([]models.Image, error)
	UpdateMeta(ctx context.Context, id string, update repository.ImageMetaUpdate) error
	CollectStats(ctx context.Context, recentSince time.Time, topN int) (repository.Stats, error)
}

type messageStore interface {
	List(ctx context.Context, limit, offset int) ([]models.ContactMessage, error)
	MarkRead(ctx context.Context, id string, read bool) error
	MarkReplied(ctx context.Context, id string, replied bool) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context) (total int64, unread int64, err error)
}

type blobFetcher interface {
	Fetch(ctx context.Context, bucket, objectKey string) ([]byte, error)
}

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	store          blobFetcher
	images         imageCatalog
	admins         *repository.AdminRepository
	messages       messageStore
	renderer       *pipeline.Renderer
	counter        *views.Counter
	accessService  *service.AccessService
	uploadService  *service.UploadService
	authService    *service.AuthService
	contactService *service.ContactService
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	cfg *config.AppConfig,
) (HandlerSet, error) {
	imageRepo := repository.NewImageRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	contactRepo := repository.NewContactRepository(db)

	renderer, err := pipeline.NewRenderer(cfg.Media.WatermarkLabel, cfg.Media.JPEGQuality, cfg.Media.ThumbnailMax)
	if err != nil {
		return HandlerSet{}, err
	}

	counter := views.NewCounter(cache, imageRepo, log)
	tokens := security.NewImageTokens(cfg.Security.ImageTokenSecret, cfg.Security.ImageTokenTTL)
	origins := security.NewOriginGuard(cfg.Security.AllowedOrigins)

	access := service.NewAccessService(imageRepo, store, counter, tokens, origins, renderer, log)
	upload := service.NewUploadService(imageRepo, store, cfg, log)
	auth := service.NewAuthService(adminRepo, cfg, log)
	contact := service.NewContactService(contactRepo)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		store:          store,
		images:         imageRepo,
		admins:         adminRepo,
		messages:       contactRepo,
		renderer:       renderer,
		counter:        counter,
		accessService:  access,
		uploadService:  upload,
		authService:    auth,
		contactService: contact,
	}, nil
}

// Counter exposes the view counter for the flush job.
func (h HandlerSet) Counter() *views.Counter {
	return h.counter
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	images := v1.Group("/images")
	{
		images.GET("", h.ListImages)
		images.GET("/home", h.HomeImages)
		images.GET("/gallery", h.GalleryImages)
		images.GET("/meta/:id", h.ImageMeta)
		images.GET("/token/:id", h.ImageToken)
		images.GET("/view/:id", h.ViewImage)
	}

	v1.POST("/contact", h.SubmitContact)

	auth := v1.Group("/admin/auth")
	{
		auth.POST("/login", h.AdminLogin)
		auth.POST("/register", h.AdminRegister)

		protected := v1.Group("/admin/auth")
		protected.Use(middleware.AdminAuth(h.cfg, h.admins))
		protected.GET("/verify", h.AdminVerify)
		protected.PUT("/password", h.AdminChangePassword)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(h.cfg, h.admins))
	{
		admin.GET("/images", h.AdminListImages)
		admin.POST("/images", h.AdminUploadImage)
		admin.PATCH("/images/:id", h.AdminUpdateImage)
		admin.DELETE("/images/:id", h.AdminDeleteImage)
		admin.GET("/images/:id/preview", h.AdminImagePreview)
		admin.GET("/stats", h.AdminStats)
		admin.GET("/messages", h.AdminListMessages)
		admin.PUT("/messages/:id/read", h.AdminMarkMessageRead)
		admin.PUT("/messages/:id/replied", h.AdminMarkMessageReplied)
		admin.DELETE("/messages/:id", h.AdminDeleteMessage)
	}
}
