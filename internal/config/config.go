package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-rooms"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	Room      Room
	Standings Standings
	OAuth     OAuth
	CORS      CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// ConnString renders the keyword/value DSN shared by the API pool and the
// migrator.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache + pub/sub configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Room groups live-room defaults and limits.
type Room struct {
	Capacity         int           `env:"ROOM_CAPACITY" envDefault:"50"`
	QuestionDuration time.Duration `env:"ROOM_QUESTION_SECONDS" envDefault:"20s"`
	MinDuration      time.Duration `env:"ROOM_MIN_QUESTION_SECONDS" envDefault:"5s"`
	MaxDuration      time.Duration `env:"ROOM_MAX_QUESTION_SECONDS" envDefault:"60s"`
	CompletedGrace   time.Duration `env:"ROOM_COMPLETED_GRACE_SECONDS" envDefault:"30s"`
	SweepInterval    time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"10m"`
	StaleAge         time.Duration `env:"ROOM_STALE_AGE" envDefault:"2h"`
}

// Standings governs the cross-game leaderboard snapshotting and broadcasts.
type Standings struct {
	SnapshotInterval time.Duration `env:"STANDINGS_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"STANDINGS_SNAPSHOT_TOP" envDefault:"50"`
}

// OAuth holds OAuth provider configuration.
type OAuth struct {
	GoogleClientID     string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_OAUTH_REDIRECT_URL"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Room.MinDuration <= 0 || cfg.Room.MaxDuration < cfg.Room.MinDuration {
		return nil, fmt.Errorf("invalid room question duration bounds: min=%s max=%s", cfg.Room.MinDuration, cfg.Room.MaxDuration)
	}
	if cfg.Room.QuestionDuration < cfg.Room.MinDuration || cfg.Room.QuestionDuration > cfg.Room.MaxDuration {
		return nil, fmt.Errorf("default question duration %s outside bounds", cfg.Room.QuestionDuration)
	}
	return cfg, nil
}
