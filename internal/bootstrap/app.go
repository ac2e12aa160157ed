package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault/internal/accounts"
	googleauth "docvault/internal/auth"
	"docvault/internal/documents"
	"docvault/internal/objects"
	"docvault/internal/shared/config"
	"docvault/internal/shared/server"
	"docvault/internal/shared/storage/db"
	"docvault/internal/shared/storage/object"
	localstore "docvault/internal/shared/storage/object/local"
	s3store "docvault/internal/shared/storage/object/s3"
	"docvault/internal/shared/telemetry"
)

// App holds the wired application dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store

	AccountsRepo  accounts.Repo
	DocumentsRepo documents.Repo

	AccountsService  *accounts.Service
	DocumentsService *documents.Service

	AccountsHandler  *accounts.Handler
	DocumentsHandler *documents.Handler
	ObjectsHandler   *objects.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AccountsHandler: app.AccountsHandler,
		DocumentHandler: app.DocumentsHandler,
		ObjectsHandler:  app.ObjectsHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: DATABASE_URL empty; using in-memory repositories", nil)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: database connect failed; using in-memory repositories", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap: migrations failed; using in-memory repositories", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildServices(app *App) {
	var accountsRepo accounts.Repo
	var docRepo documents.Repo
	if app.DB != nil {
		accountsRepo = &accounts.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		accountsRepo = accounts.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	accountsSvc := accounts.NewService(accountsRepo)
	docSvc := &documents.Service{
		Repo:       docRepo,
		Store:      app.Store,
		FileBucket: app.Config.FileBucket,
	}

	app.AccountsRepo = accountsRepo
	app.DocumentsRepo = docRepo
	app.AccountsService = accountsSvc
	app.DocumentsService = docSvc
	app.AccountsHandler = accounts.NewHandler(accountsSvc)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ObjectsHandler = objects.NewHandler(app.Store)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		accountsSvc,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
