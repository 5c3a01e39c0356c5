// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	accountsfeature "github.com/dalemusser/placementhub/internal/app/features/accounts"
	adminsfeature "github.com/dalemusser/placementhub/internal/app/features/admins"
	announcementsfeature "github.com/dalemusser/placementhub/internal/app/features/announcements"
	atsfeature "github.com/dalemusser/placementhub/internal/app/features/ats"
	auditlogfeature "github.com/dalemusser/placementhub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/placementhub/internal/app/features/authgoogle"
	communicationfeature "github.com/dalemusser/placementhub/internal/app/features/communication"
	companiesfeature "github.com/dalemusser/placementhub/internal/app/features/companies"
	dashboardfeature "github.com/dalemusser/placementhub/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/placementhub/internal/app/features/health"
	interviewfeature "github.com/dalemusser/placementhub/internal/app/features/interview"
	problemsfeature "github.com/dalemusser/placementhub/internal/app/features/problems"
	quizzesfeature "github.com/dalemusser/placementhub/internal/app/features/quizzes"
	studentsfeature "github.com/dalemusser/placementhub/internal/app/features/students"
	accountstore "github.com/dalemusser/placementhub/internal/app/store/accounts"
	"github.com/dalemusser/placementhub/internal/app/store/audit"
	"github.com/dalemusser/placementhub/internal/app/system/aicache"
	"github.com/dalemusser/placementhub/internal/app/system/apiresp"
	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/auth"
	"github.com/dalemusser/placementhub/internal/app/system/coderunner"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/placementhub/internal/app/system/mailer"
	"github.com/dalemusser/placementhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// runBurst is the burst allowance for code runs and submissions.
const runBurst = 5

// BuildHandler assembles the API router: CORS for the SPA, session loading,
// /health, local uploads, and every feature under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	ctx := deps.Lifecycle.Context()

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Role changes and disabled accounts take effect on the next request.
	sessionMgr.SetUserFetcher(accountstore.NewFetcher(db))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	sender := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	files, err := filestore.New(ctx, filestore.Config{
		Type:                appCfg.StorageType,
		LocalPath:           appCfg.StorageLocalPath,
		LocalURL:            appCfg.StorageLocalURL,
		S3Region:            appCfg.StorageS3Region,
		S3Bucket:            appCfg.StorageS3Bucket,
		S3Prefix:            appCfg.StorageS3Prefix,
		S3PublicURL:         appCfg.StorageS3PublicURL,
		CloudinaryCloudName: appCfg.CloudinaryCloudName,
		CloudinaryAPIKey:    appCfg.CloudinaryAPIKey,
		CloudinaryAPISecret: appCfg.CloudinaryAPISecret,
		CloudinaryFolder:    "placement",
	})
	if err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}

	client, err := llm.New(ctx, llm.Config{
		Provider:        appCfg.LLMProvider,
		GroqAPIKey:      appCfg.GroqAPIKey,
		GroqModel:       appCfg.GroqModel,
		GroqVisionModel: appCfg.GroqVisionModel,
		GeminiAPIKey:    appCfg.GeminiAPIKey,
		GeminiModel:     appCfg.GeminiModel,
	}, logger)
	if err != nil {
		return nil, err
	}

	var cache *aicache.Cache
	if deps.Redis != nil {
		cache = aicache.New(deps.Redis, aicache.WithTTL(appCfg.AICacheTTL))
	}

	runner, err := newRunner(appCfg, logger)
	if err != nil {
		return nil, err
	}

	loginLimiter := ratelimit.NewLoginLimiter()
	deps.Lifecycle.OnStop(loginLimiter.Stop)

	aiLimiter := ratelimit.NewKeyedLimiter(appCfg.AIRatePerMinute, appCfg.AIBurst)
	aiLimiter.StartJanitor(ctx, 10*time.Minute)
	runLimiter := ratelimit.NewKeyedLimiter(appCfg.RunRatePerMinute, runBurst)
	runLimiter.StartJanitor(ctx, 10*time.Minute)
	aiMW := aiLimiter.Middleware(userKey)
	runMW := runLimiter.Middleware(userKey)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if local, ok := files.(*filestore.Local); ok {
		r.Handle(local.URLPrefix()+"/*", fileserver.Handler(local.URLPrefix(), local.Root()))
	}

	// Features
	accountsHandler := accountsfeature.NewHandler(db, sessionMgr, sender, auditLogger, loginLimiter, appCfg.SiteName, appCfg.BaseURL, logger)
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLogger,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.APIURL, appCfg.BaseURL, logger)
	studentsHandler := studentsfeature.NewHandler(db, files, auditLogger, logger)
	adminsHandler := adminsfeature.NewHandler(db, auditLogger, logger)
	companiesHandler := companiesfeature.NewHandler(db, files, sender, auditLogger, appCfg.SiteName, appCfg.BaseURL, logger)
	announcementsHandler := announcementsfeature.NewHandler(db, auditLogger, logger)
	quizzesHandler := quizzesfeature.NewHandler(db, client, files, auditLogger, logger)
	problemsHandler := problemsfeature.NewHandler(db, runner, auditLogger, logger)
	atsHandler := atsfeature.NewHandler(db, client, cache, logger)
	interviewHandler := interviewfeature.NewHandler(db, client, logger)
	communicationHandler := communicationfeature.NewHandler(db, client, logger)
	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	auditHandler := auditlogfeature.NewHandler(db, logger)

	r.Route("/api", func(api chi.Router) {
		authRouter := accountsfeature.Routes(accountsHandler, sessionMgr)
		authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))
		api.Mount("/auth", authRouter)

		me := chi.NewRouter()
		me.Use(sessionMgr.RequireSignedIn)
		studentsfeature.MountSelfRoutes(me, studentsHandler, sessionMgr)
		companiesfeature.MountSelfRoutes(me, companiesHandler, sessionMgr)
		quizzesfeature.MountSelfRoutes(me, quizzesHandler, sessionMgr)
		problemsfeature.MountSelfRoutes(me, problemsHandler, sessionMgr)
		api.Mount("/me", me)

		api.Mount("/students", studentsfeature.AdminRoutes(studentsHandler, sessionMgr))
		api.Mount("/admins", adminsfeature.Routes(adminsHandler, sessionMgr))
		api.Mount("/companies", companiesfeature.Routes(companiesHandler, sessionMgr))
		api.Mount("/applications", companiesfeature.ApplicationRoutes(companiesHandler, sessionMgr))
		api.Mount("/announcements", announcementsfeature.Routes(announcementsHandler, sessionMgr))
		api.Mount("/quizzes", quizzesfeature.Routes(quizzesHandler, sessionMgr))
		api.Mount("/attempts", quizzesfeature.AttemptRoutes(quizzesHandler, sessionMgr, aiMW))
		api.Mount("/problems", problemsfeature.Routes(problemsHandler, sessionMgr, runMW))
		api.Mount("/run", problemsfeature.RunRoutes(problemsHandler, sessionMgr, runMW))
		api.Mount("/ats", atsfeature.Routes(atsHandler, sessionMgr, aiMW))
		api.Mount("/interview", interviewfeature.Routes(interviewHandler, sessionMgr, aiMW))
		api.Mount("/communication", communicationfeature.Routes(communicationHandler, sessionMgr, aiMW))
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apiresp.NotFound(w, "no such endpoint")
		})
		api.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			apiresp.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	})

	logger.Info("routes mounted",
		zap.Strings("cors_origins", appCfg.CORSOrigins),
		zap.String("storage", appCfg.StorageType),
		zap.Bool("ai_cache", cache != nil),
		zap.Strings("languages", coderunner.SortedIDs(runner.Languages())))
	return r, nil
}

// userKey buckets rate limits by signed-in user; anonymous requests fall
// back to the client IP inside the limiter.
func userKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return ""
}

// newRunner builds the code runner from the configured or embedded catalog.
func newRunner(appCfg AppConfig, logger *zap.Logger) (*coderunner.Runner, error) {
	cfg := coderunner.Config{
		Timeout:       appCfg.RunnerTimeout,
		MaxOutput:     appCfg.RunnerMaxOutput,
		MaxConcurrent: appCfg.RunnerMaxConcurrent,
	}
	if appCfg.RunnerLanguagesFile != "" {
		langs, err := coderunner.LoadLanguages(appCfg.RunnerLanguagesFile)
		if err != nil {
			return nil, fmt.Errorf("runner languages: %w", err)
		}
		cfg.Languages = langs
	}
	return coderunner.New(cfg, logger.Named("coderunner"))
}

