// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/placementhub/internal/app/system/auditlog"
	"github.com/dalemusser/placementhub/internal/app/system/filestore"
	"github.com/dalemusser/placementhub/internal/app/system/llm"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files, PLACEMENT_* environment
// variables and --flags, in WAFFLE's usual precedence.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "placement_portal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (32+ chars in production)"},
	{Name: "session_name", Default: "placement-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime"},
	{Name: "cors_origins", Default: "http://localhost:5173", Desc: "Comma-separated SPA origins"},

	{Name: "storage_type", Default: "local", Desc: "File storage: 'local', 's3' or 'cloudinary'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage directory"},
	{Name: "storage_local_url", Default: "/uploads", Desc: "URL prefix for local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "placement/", Desc: "S3 key prefix"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for S3 objects (CDN); blank uses the bucket URL"},
	{Name: "cloudinary_cloud_name", Default: "", Desc: "Cloudinary cloud name"},
	{Name: "cloudinary_api_key", Default: "", Desc: "Cloudinary API key"},
	{Name: "cloudinary_api_secret", Default: "", Desc: "Cloudinary API secret"},

	{Name: "llm_provider", Default: "groq", Desc: "LLM provider: 'groq' or 'gemini'"},
	{Name: "groq_api_key", Default: "", Desc: "Groq API key (blank disables AI features)"},
	{Name: "groq_model", Default: "llama-3.3-70b-versatile", Desc: "Groq text model"},
	{Name: "groq_vision_model", Default: "meta-llama/llama-4-scout-17b-16e-instruct", Desc: "Groq vision model for proctoring"},
	{Name: "gemini_api_key", Default: "", Desc: "Gemini API key"},
	{Name: "gemini_model", Default: "gemini-2.0-flash", Desc: "Gemini model"},
	{Name: "ai_rate_per_minute", Default: 10, Desc: "AI requests per user per minute"},
	{Name: "ai_burst", Default: 5, Desc: "AI request burst per user"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for the AI cache (blank disables)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "ai_cache_ttl", Default: "24h", Desc: "AI cache entry lifetime"},

	{Name: "runner_languages_file", Default: "", Desc: "YAML language catalog (blank uses the built-in one)"},
	{Name: "runner_timeout", Default: "5s", Desc: "Wall-clock limit per program run"},
	{Name: "runner_max_output", Default: 65536, Desc: "Bytes kept per output stream"},
	{Name: "runner_max_concurrent", Default: 4, Desc: "Programs allowed to run at once"},
	{Name: "run_rate_per_minute", Default: 20, Desc: "Code runs and submissions per user per minute"},

	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "placements@example.edu", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Placement Cell", Desc: "From display name"},

	{Name: "site_name", Default: "Placement Portal", Desc: "Name used in emails"},
	{Name: "base_url", Default: "http://localhost:5173", Desc: "SPA base URL for email links and OAuth redirects"},
	{Name: "api_url", Default: "http://localhost:8080", Desc: "Public URL of this API"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "superadmin_email", Default: "", Desc: "Superadmin email (promoted or created on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Initial password when the superadmin is created"},
}

// LoadConfig loads WAFFLE core config and the app keys.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, "PLACEMENT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		SessionMaxAge: v.Duration("session_max_age", 7*24*time.Hour),
		CORSOrigins:   splitList(v.String("cors_origins")),

		StorageType:         strings.ToLower(v.String("storage_type")),
		StorageLocalPath:    v.String("storage_local_path"),
		StorageLocalURL:     v.String("storage_local_url"),
		StorageS3Region:     v.String("storage_s3_region"),
		StorageS3Bucket:     v.String("storage_s3_bucket"),
		StorageS3Prefix:     v.String("storage_s3_prefix"),
		StorageS3PublicURL:  v.String("storage_s3_public_url"),
		CloudinaryCloudName: v.String("cloudinary_cloud_name"),
		CloudinaryAPIKey:    v.String("cloudinary_api_key"),
		CloudinaryAPISecret: v.String("cloudinary_api_secret"),

		LLMProvider:     strings.ToLower(v.String("llm_provider")),
		GroqAPIKey:      v.String("groq_api_key"),
		GroqModel:       v.String("groq_model"),
		GroqVisionModel: v.String("groq_vision_model"),
		GeminiAPIKey:    v.String("gemini_api_key"),
		GeminiModel:     v.String("gemini_model"),
		AIRatePerMinute: float64(v.Int("ai_rate_per_minute")),
		AIBurst:         v.Int("ai_burst"),

		RedisAddr:     v.String("redis_addr"),
		RedisPassword: v.String("redis_password"),
		RedisDB:       v.Int("redis_db"),
		AICacheTTL:    v.Duration("ai_cache_ttl", 24*time.Hour),

		RunnerLanguagesFile: v.String("runner_languages_file"),
		RunnerTimeout:       v.Duration("runner_timeout", 5*time.Second),
		RunnerMaxOutput:     int64(v.Int("runner_max_output")),
		RunnerMaxConcurrent: v.Int("runner_max_concurrent"),
		RunRatePerMinute:    float64(v.Int("run_rate_per_minute")),

		MailSMTPHost: v.String("mail_smtp_host"),
		MailSMTPPort: v.Int("mail_smtp_port"),
		MailSMTPUser: v.String("mail_smtp_user"),
		MailSMTPPass: v.String("mail_smtp_pass"),
		MailFrom:     v.String("mail_from"),
		MailFromName: v.String("mail_from_name"),

		SiteName: v.String("site_name"),
		BaseURL:  v.String("base_url"),
		APIURL:   v.String("api_url"),

		GoogleClientID:     v.String("google_client_id"),
		GoogleClientSecret: v.String("google_client_secret"),

		AuditLogAuth:  strings.ToLower(v.String("audit_log_auth")),
		AuditLogAdmin: strings.ToLower(v.String("audit_log_admin")),

		SuperAdminEmail:    v.String("superadmin_email"),
		SuperAdminPassword: v.String("superadmin_password"),
	}
	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig rejects settings that would only fail later, at the first
// upload or AI call.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "", filestore.TypeLocal:
	case filestore.TypeS3:
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_bucket and storage_s3_region")
		}
	case filestore.TypeCloudinary:
		if appCfg.CloudinaryCloudName == "" || appCfg.CloudinaryAPIKey == "" || appCfg.CloudinaryAPISecret == "" {
			return fmt.Errorf("storage_type cloudinary requires cloudinary_cloud_name, cloudinary_api_key and cloudinary_api_secret")
		}
	default:
		return fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}

	switch appCfg.LLMProvider {
	case "", llm.ProviderGroq, llm.ProviderGemini:
	default:
		return fmt.Errorf("unknown llm_provider %q", appCfg.LLMProvider)
	}

	for name, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be all, db, log or off (got %q)", name, mode)
		}
	}

	if appCfg.AIRatePerMinute <= 0 || appCfg.RunRatePerMinute <= 0 {
		return fmt.Errorf("ai_rate_per_minute and run_rate_per_minute must be positive")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters in prod")
	}
	return nil
}
