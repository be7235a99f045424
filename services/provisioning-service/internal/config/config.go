package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/Rareminds-eym/skillpassport-sub044/shared/discovery"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/logger"
	"github.com/Rareminds-eym/skillpassport-sub044/shared/mailer"
)

const ServiceName = "provisioning-service"

const (
	IdentityBackendGoTrue = "gotrue"
	IdentityBackendMongo  = "mongo"
)

// ProvisioningServiceConfig is the full runtime configuration of the service.
type ProvisioningServiceConfig struct {
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`
	GRPCPort int `env:"GRPC_PORT" envDefault:"9090"`

	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	Identity     IdentityConfig     `envPrefix:"IDENTITY_"`
	Token        TokenConfig        `envPrefix:"TOKEN_"`
	Provisioning ProvisioningConfig `envPrefix:"PROVISIONING_"`
	Notification NotificationConfig `envPrefix:"NOTIFICATION_"`
	HTTP         HTTPConfig         `envPrefix:"HTTP_"`

	AppPasswordResetURL string `env:"APP_PASSWORD_RESET_URL" envDefault:"http://localhost:3000/reset-password"`
	AppLoginURL         string `env:"APP_LOGIN_URL"          envDefault:"http://localhost:3000/login"`

	Log    logger.Config
	SMTP   mailer.Config
	Consul discovery.Config
}

// IdentityConfig selects and configures the identity service adapter.
type IdentityConfig struct {
	Backend string `env:"BACKEND" envDefault:"gotrue"`

	// GoTrue admin API.
	URL        string        `env:"URL"`
	ServiceKey string        `env:"SERVICE_KEY"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`
	PageSize   int           `env:"PAGE_SIZE"   envDefault:"1000"`

	// Self-hosted principal directory.
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"identity"`
}

// MaxPasswordResetTokenTTL bounds how long a reset link stays usable.
const MaxPasswordResetTokenTTL = 30 * time.Minute

// TokenConfig covers admin bearer tokens and password reset tokens.
type TokenConfig struct {
	Issuer                      string        `env:"ISSUER"                          envDefault:"skillpassport"`
	Audience                    string        `env:"AUDIENCE"                        envDefault:"provisioning-api"`
	AccessTokenSecret           string        `env:"ACCESS_TOKEN_SECRET"`
	PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_TOKEN_EXPIRES_IN" envDefault:"30m"`
	PurgeInterval               time.Duration `env:"PURGE_INTERVAL"                  envDefault:"15m"`
}

// ProvisioningConfig tunes the signup saga.
type ProvisioningConfig struct {
	MinPasswordLength  int           `env:"MIN_PASSWORD_LENGTH"  envDefault:"6"`
	AutoConfirmEmail   bool          `env:"AUTO_CONFIRM_EMAIL"   envDefault:"true"`
	LinkRetryAttempts  int           `env:"LINK_RETRY_ATTEMPTS"  envDefault:"3"`
	LinkRetryBaseDelay time.Duration `env:"LINK_RETRY_BASE_DELAY" envDefault:"500ms"`
}

// NotificationConfig configures the dispatcher channels.
type NotificationConfig struct {
	RatePerSecond   float64       `env:"RATE_PER_SECOND"   envDefault:"5"`
	Burst           int           `env:"BURST"             envDefault:"10"`
	SMSGatewayURL   string        `env:"SMS_GATEWAY_URL"`
	SMSGatewayToken string        `env:"SMS_GATEWAY_TOKEN"`
	Timeout         time.Duration `env:"TIMEOUT"           envDefault:"10s"`
	ProductName     string        `env:"PRODUCT_NAME"      envDefault:"SkillPassport"`
}

// HTTPConfig covers edge middleware.
type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS"      envSeparator:"," envDefault:"*"`
	RateLimit       int           `env:"RATE_LIMIT"        envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"   envDefault:"30s"`
}

// Load parses the configuration from the environment and validates it.
func Load() (*ProvisioningServiceConfig, error) {
	cfg, err := env.ParseAs[ProvisioningServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewProvisioningServiceConfig loads the configuration or exits the process.
func NewProvisioningServiceConfig(logger *zerolog.Logger) *ProvisioningServiceConfig {
	cfg, err := Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load provisioning service configuration")
	}

	return cfg
}

func (c *ProvisioningServiceConfig) validate() error {
	switch c.Identity.Backend {
	case IdentityBackendGoTrue:
		if c.Identity.URL == "" || c.Identity.ServiceKey == "" {
			return errors.New("IDENTITY_URL and IDENTITY_SERVICE_KEY are required for the gotrue backend")
		}
	case IdentityBackendMongo:
		if c.Identity.MongoURI == "" {
			return errors.New("IDENTITY_MONGO_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_BACKEND %q", c.Identity.Backend)
	}

	if c.Token.AccessTokenSecret == "" {
		return errors.New("missing TOKEN_ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.PasswordResetTokenExpiresIn <= 0 {
		return errors.New("TOKEN_PASSWORD_RESET_TOKEN_EXPIRES_IN must be positive")
	}
	if c.Token.PasswordResetTokenExpiresIn > MaxPasswordResetTokenTTL {
		return fmt.Errorf("TOKEN_PASSWORD_RESET_TOKEN_EXPIRES_IN must not exceed %s", MaxPasswordResetTokenTTL)
	}
	if c.Provisioning.MinPasswordLength < 1 {
		return errors.New("PROVISIONING_MIN_PASSWORD_LENGTH must be at least 1")
	}
	if c.SMTP.Enabled() {
		if err := c.SMTP.Validate(); err != nil {
			return err
		}
	}

	return nil
}
