package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-rolegate/internal/domain"
	"github.com/go-rolegate/internal/pkg/validate"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	DiscordToken          string `validate:"required"`
	ServerID              string `validate:"required"`
	VerificationChannelID string // optional, verification panel skipped when empty
	RoleSwitchChannelID   string // optional, switch panel skipped when empty
	ProjectA              ProjectConfig
	ProjectB              ProjectConfig
	ExceptionalRoles      []string

	DataFile       string
	SwitchCooldown time.Duration
	CaptchaTTL     time.Duration
	GatewayRate    float64
	GatewayBurst   int

	AWSRegion        string
	AWSEndpointURL   string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID   string
	AWSSecretKey     string
	AuditTable       string // empty disables the audit trail
	AuditRetention   time.Duration
	S3BucketName     string // empty disables the role-store mirror
	S3SnapshotKey    string
	SNSAlertTopicARN string // empty disables operator alerts

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	AllowedOrigins    []string // CORS allowed origins
}

// ProjectConfig describes one of the two switchable projects.
// Key is also the partition name in the persisted role store.
type ProjectConfig struct {
	Key    string `validate:"required,alphanum"`
	Label  string `validate:"required"`
	RoleID string `validate:"required"`
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:               getEnv("APP_PORT", "3000"),
		AppEnv:                getEnv("APP_ENV", "development"),
		DiscordToken:          getEnv("DISCORD_TOKEN", ""),
		ServerID:              getEnv("SERVER_ID", ""),
		VerificationChannelID: getEnv("VERIFICATION_CHANNEL_ID", ""),
		RoleSwitchChannelID:   getEnv("ROLE_SWITCH_CHANNEL_ID", ""),
		ProjectA: ProjectConfig{
			Key:    getEnv("PROJECT_A_KEY", "octonads"),
			Label:  getEnv("PROJECT_A_LABEL", "OCTONADS (NFT COLLECTION)"),
			RoleID: getEnv("OCTOFIED_ROLE_ID", ""),
		},
		ProjectB: ProjectConfig{
			Key:    getEnv("PROJECT_B_KEY", "octoverse"),
			Label:  getEnv("PROJECT_B_LABEL", "OCTOVERSE (OTC MARKETPLACE)"),
			RoleID: getEnv("OTC_OCTOFIED_ROLE_ID", ""),
		},
		ExceptionalRoles: splitList(getEnv("EXCEPTIONAL_ROLES", "")),

		DataFile:       getEnv("DATA_FILE", "userRoles.json"),
		SwitchCooldown: time.Duration(getEnvInt("SWITCH_COOLDOWN_SECONDS", 30)) * time.Second,
		CaptchaTTL:     time.Duration(getEnvInt("CAPTCHA_TTL_SECONDS", 60)) * time.Second,
		GatewayRate:    getEnvFloat("GATEWAY_RATE_PER_SECOND", 5),
		GatewayBurst:   getEnvInt("GATEWAY_BURST", 5),

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL:   getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AuditTable:       getEnv("DYNAMO_TABLE_AUDIT", ""),
		AuditRetention:   time.Duration(getEnvInt("AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour,
		S3BucketName:     getEnv("S3_BUCKET_NAME", ""),
		S3SnapshotKey:    getEnv("S3_SNAPSHOT_KEY", "rolegate/userRoles.json"),
		SNSAlertTopicARN: getEnv("SNS_ALERT_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Validate reports every missing or malformed required setting.
// The two projects must not share a key or a primary role.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.ProjectA.Key == c.ProjectB.Key {
		return errors.New("PROJECT_A_KEY and PROJECT_B_KEY must differ")
	}
	if c.ProjectA.RoleID == c.ProjectB.RoleID {
		return errors.New("OCTOFIED_ROLE_ID and OTC_OCTOFIED_ROLE_ID must differ")
	}
	return nil
}

// Projects returns the configured project pair.
func (c *Config) Projects() domain.Projects {
	return domain.Projects{
		A: domain.Project{Key: c.ProjectA.Key, Label: c.ProjectA.Label, PrimaryRoleID: c.ProjectA.RoleID},
		B: domain.Project{Key: c.ProjectB.Key, Label: c.ProjectB.Label, PrimaryRoleID: c.ProjectB.RoleID},
	}
}

// IsProduction reports whether APP_ENV selects production behaviour (JSON logs).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// splitList parses a comma-separated list, dropping blanks and surrounding spaces.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
