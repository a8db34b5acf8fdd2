package config

import (
	"fmt"
	"os"
	"time"

	"cup-bot/services"
	"cup-bot/utils"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is everything the bot reads from the environment.
type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildID           string `env:"GUILD_ID,required,notEmpty"`
	CupChannelID      string `env:"CUP_CHANNEL_ID,required,notEmpty"`
	CupsChannelID     string `env:"CUPS_CHANNEL_ID,required,notEmpty"`
	PrestigeChannelID string `env:"PRESTIGE_CHANNEL_ID,required,notEmpty"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"cup.db"`
	RolesFile   string `env:"ROLES_FILE" envDefault:"roles.yaml"`

	HTTPAddr   string `env:"HTTP_ADDR" envDefault:":5200"`
	AdminToken string `env:"ADMIN_TOKEN"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	R2AccountID       string        `env:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string        `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string        `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string        `env:"R2_BUCKET_NAME"`
	CDNBaseURL        string        `env:"CDN_BASE_URL"`
	ExportInterval    time.Duration `env:"EXPORT_INTERVAL" envDefault:"0s"`

	Roles Roles `env:"-"`
}

// Roles maps game state onto guild role ids.
type Roles struct {
	MilestoneRoles map[int64]string `yaml:"milestone_roles"`
	PrestigeRoles  map[int]string   `yaml:"prestige_roles"`
	CosmeticRoles  []string         `yaml:"cosmetic_roles"`
	Activity       string           `yaml:"activity"`
}

// Load reads .env (if present), the environment and the roles file.
// The returned warning is non-empty when no .env file was found.
func Load() (*Config, string, error) {
	var warning string
	if err := godotenv.Load(); err != nil {
		warning = "⚠️  No .env file found, reading environment variables directly"
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, warning, fmt.Errorf("parse env: %w", err)
	}

	raw, err := os.ReadFile(cfg.RolesFile)
	if err != nil {
		return nil, warning, fmt.Errorf("read roles file %s: %w", cfg.RolesFile, err)
	}
	roles, err := ParseRoles(raw)
	if err != nil {
		return nil, warning, err
	}
	cfg.Roles = roles

	if err := cfg.Validate(); err != nil {
		return nil, warning, err
	}
	return &cfg, warning, nil
}

// ParseRoles decodes a roles YAML document.
func ParseRoles(raw []byte) (Roles, error) {
	var roles Roles
	if err := yaml.Unmarshal(raw, &roles); err != nil {
		return Roles{}, fmt.Errorf("parse roles file: %w", err)
	}
	if roles.Activity == "" {
		roles.Activity = "with cups"
	}
	return roles, nil
}

// Validate checks every milestone and prestige level has a role.
func (c *Config) Validate() error {
	for _, t := range services.MilestoneThresholds {
		if c.Roles.MilestoneRoles[t] == "" {
			return fmt.Errorf("roles file: missing milestone role for %d cups", t)
		}
	}
	for lvl := 1; lvl <= services.MaxPrestige; lvl++ {
		if c.Roles.PrestigeRoles[lvl] == "" {
			return fmt.Errorf("roles file: missing prestige role for level %d", lvl)
		}
	}
	return nil
}

// R2 returns the object storage settings.
func (c *Config) R2() utils.R2Config {
	return utils.R2Config{
		AccountID:       c.R2AccountID,
		AccessKeyID:     c.R2AccessKeyID,
		AccessKeySecret: c.R2AccessKeySecret,
		Bucket:          c.R2Bucket,
		CDNBaseURL:      c.CDNBaseURL,
	}
}
