package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/config"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/db"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/mail"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/poster"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/repository"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/service"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/storage"
)

// Repositories - все репозитории поверх одного пула.
type Repositories struct {
	Users         *repository.UserRepository
	Verifications *repository.VerificationRepository
	Listings      *repository.ListingRepository
	Reports       *repository.ReportRepository
	Suspensions   *repository.SuspensionRepository
	Points        *repository.PointsRepository
	Conversations *repository.ConversationRepository
	Notifications *repository.NotificationRepository
	Activity      *repository.ActivityRepository
	Transactor    *repository.Transactor
}

// Services - собранный граф сервисов.
type Services struct {
	Tokens        *service.TokenManager
	Auth          *service.AuthService
	Notifications *service.NotificationService
	Activity      *service.ActivityService
	Moderation    *service.ModerationService
	Points        *service.PointsService
	Sweeper       *service.WarehouseSweeper
	Listings      *service.ListingService
	Returns       *service.ReturnService
	Chat          *service.ChatService
}

// App держит соединение с базой и всё, что от него зависит.
type App struct {
	Config  *config.Config
	DB      *sqlx.DB
	Storage *storage.FileStorage
	Posters *poster.Renderer
	Repos   Repositories
	Svc     Services
}

// InitLogger настраивает логгер по конфигурации.
func InitLogger(cfg *config.Config) {
	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
}

// New подключается к базе и собирает сервисы. Миграции не запускает.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("app: connect database: %w", err)
	}

	files, err := storage.NewFileStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: prepare media storage: %w", err)
	}

	a := &App{
		Config:  cfg,
		DB:      conn,
		Storage: files,
		Posters: poster.NewRenderer(files, cfg.PublicBaseURL),
	}
	a.Repos = newRepositories(conn)
	a.Svc = newServices(cfg, a.Repos, files, mail.NewSender(cfg.Mail))

	if !cfg.Mail.Enabled() {
		logger.WithFields(logrus.Fields{"env": cfg.Env}).Warn("app: SMTP is not configured, emails will only be logged")
	}

	return a, nil
}

// Migrate применяет миграции из cfg.MigrationsPath.
func (a *App) Migrate(ctx context.Context) (int, error) {
	return db.RunMigrations(ctx, a.DB, a.Config.MigrationsPath)
}

// Close закрывает соединение с базой.
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		logger.WithFields(logrus.Fields{"error": err.Error()}).Warn("app: close database")
	}
}

func newRepositories(conn *sqlx.DB) Repositories {
	return Repositories{
		Users:         repository.NewUserRepository(conn),
		Verifications: repository.NewVerificationRepository(conn),
		Listings:      repository.NewListingRepository(conn),
		Reports:       repository.NewReportRepository(conn),
		Suspensions:   repository.NewSuspensionRepository(conn),
		Points:        repository.NewPointsRepository(conn),
		Conversations: repository.NewConversationRepository(conn),
		Notifications: repository.NewNotificationRepository(conn),
		Activity:      repository.NewActivityRepository(conn),
		Transactor:    repository.NewTransactor(conn),
	}
}

func newServices(cfg *config.Config, r Repositories, files *storage.FileStorage, mailer mail.Sender) Services {
	var s Services

	s.Tokens = service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	s.Notifications = service.NewNotificationService(r.Notifications)
	s.Activity = service.NewActivityService(r.Activity, r.Listings)
	s.Auth = service.NewAuthService(r.Users, r.Verifications, s.Tokens, mailer, s.Activity)
	s.Moderation = service.NewModerationService(r.Reports, r.Suspensions, r.Users, r.Listings, r.Transactor, s.Notifications, s.Activity)
	s.Points = service.NewPointsService(r.Points, r.Transactor, s.Notifications)
	s.Sweeper = service.NewWarehouseSweeper(r.Listings, r.Users, s.Notifications, mailer, s.Activity)
	s.Listings = service.NewListingService(r.Listings, r.Users, s.Moderation, s.Sweeper, s.Notifications, mailer, s.Activity, cfg.PublicBaseURL)
	s.Returns = service.NewReturnService(r.Listings, r.Points, s.Points, r.Users, r.Transactor, s.Notifications, s.Activity)
	s.Chat = service.NewChatService(r.Conversations, r.Users, r.Listings, s.Moderation, files, s.Notifications, s.Activity)

	return s
}
