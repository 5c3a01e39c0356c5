// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds the placement portal's configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and body limits; everything here is ours.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions and the SPA
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration
	CORSOrigins   []string // SPA origins allowed to call the API with cookies

	// File storage: local, s3 or cloudinary
	StorageType         string
	StorageLocalPath    string
	StorageLocalURL     string
	StorageS3Region     string
	StorageS3Bucket     string
	StorageS3Prefix     string
	StorageS3PublicURL  string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// LLM provider and AI throttling
	LLMProvider     string // groq | gemini
	GroqAPIKey      string
	GroqModel       string
	GroqVisionModel string
	GeminiAPIKey    string
	GeminiModel     string
	AIRatePerMinute float64
	AIBurst         int

	// Redis AI cache (blank addr disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AICacheTTL    time.Duration

	// Code runner
	RunnerLanguagesFile string // blank uses the embedded catalog
	RunnerTimeout       time.Duration
	RunnerMaxOutput     int64
	RunnerMaxConcurrent int
	RunRatePerMinute    float64

	// Email/SMTP
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	SiteName string
	BaseURL  string // SPA origin used in email links
	APIURL   string // public URL of this server, for OAuth callbacks

	// Google sign-in for students
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging: all | db | log | off
	AuditLogAuth  string
	AuditLogAdmin string

	// Promoted or created on every start
	SuperAdminEmail    string
	SuperAdminPassword string
}
