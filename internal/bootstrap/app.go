package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/gin-gonic/gin"

	"docreader-backend/internal/analyses"
	googleauth "docreader-backend/internal/auth"
	"docreader-backend/internal/documents"
	"docreader-backend/internal/reader"
	"docreader-backend/internal/services/health"
	"docreader-backend/internal/shared/auth"
	"docreader-backend/internal/shared/config"
	"docreader-backend/internal/shared/server"
	"docreader-backend/internal/shared/storage/db"
	objects3 "docreader-backend/internal/shared/storage/object/s3"
	"docreader-backend/internal/shared/telemetry"
	"docreader-backend/internal/uploads"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	AWS       aws.Config
	Signer    *auth.Signer
	Documents *documents.Service
	Starter   *analyses.Starter
	Checker   *analyses.StatusChecker
	Poller    *analyses.Poller
	Issuer    *uploads.Issuer
}

// Build validates cfg and prepares every dependency. A missing AWS setting
// fails here rather than on first use.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewSigner(cfg.SessionSecret, cfg.SessionTTL, cfg.Env)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		AWS:    awsCfg,
		Signer: signer,
	}
	if app.Router, err = buildRouter(app); err != nil {
		return nil, err
	}
	return app, nil
}

func loadAWS(ctx context.Context, cfg config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	opts := db.RuntimeOptions()
	if db.IsLambdaRuntime() {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildRouter(app *App) (*gin.Engine, error) {
	cfg := app.Config

	var repo documents.Repo
	if app.DB != nil {
		repo = &documents.PGRepo{DB: app.DB}
	} else {
		repo = documents.NewMemoryRepo()
	}
	app.Documents = &documents.Service{Repo: repo}

	s3Client := objects3.NewClient(app.AWS, cfg.S3Endpoint)
	presigner, err := objects3.NewPresigner(s3Client, cfg.S3Bucket, cfg.PresignTTL)
	if err != nil {
		return nil, err
	}
	app.Issuer = uploads.NewIssuer(presigner)

	tx := analyses.NewTextractClient(app.AWS)
	app.Starter = &analyses.Starter{
		API:         tx,
		Bucket:      cfg.S3Bucket,
		SNSTopicARN: cfg.TextractSNSTopic,
		RoleARN:     cfg.TextractRoleARN,
	}
	app.Checker = &analyses.StatusChecker{API: tx, PageSize: cfg.Poll.PageSize}
	app.Poller = analyses.NewPoller(app.Checker, analyses.PolicyFromConfig(cfg.Poll))

	sessions := googleauth.NewSessions(app.Signer, cfg.Env)
	return server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Signer:   app.Signer,
		Sessions: sessions,
		GoogleAuth: googleauth.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			sessions,
		),
		Health:    health.NewService(app.DB),
		Uploads:   uploads.NewHandler(app.Issuer),
		Documents: documents.NewHandler(app.Documents),
		Analyses:  analyses.NewHandler(app.Starter, app.Checker),
		Reader:    reader.NewHandler(app.Poller),
	}), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
