package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr              string        `envconfig:"APP_ADDR" default:":8080"`
	Environment       string        `envconfig:"APP_ENV" default:"development"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	ReadTimeout       time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	RunMigrations     bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	RunSeed           bool          `envconfig:"RUN_SEED" default:"true"`
	MigrationsDir     string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	SeedAdminEmail    string        `envconfig:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string        `envconfig:"SEED_ADMIN_PASSWORD"`

	RateLimitPerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	MetricsEnabled     bool `envconfig:"METRICS_ENABLED" default:"true"`

	// Open policy knobs. The observed contract never pins these down, so they
	// are explicit configuration rather than hard-coded behavior.
	PayrollOneBatchPerMonth bool `envconfig:"PAYROLL_ONE_BATCH_PER_MONTH" default:"true"`
	LeaveDefaultPageSize    int  `envconfig:"LEAVE_DEFAULT_PAGE_SIZE" default:"20"`
	LeaveMaxPageSize        int  `envconfig:"LEAVE_MAX_PAGE_SIZE" default:"100"`

	PayslipDir string `envconfig:"PAYSLIP_DIR" default:"storage/payslips"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.LeaveDefaultPageSize <= 0 || c.LeaveMaxPageSize < c.LeaveDefaultPageSize {
		return fmt.Errorf("leave page size limits are inconsistent")
	}
	return nil
}
