package docgen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DatabaseName string
	SSLMode      string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SmtpConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

type AppConfig struct {
	Mode         string
	ApiPort      string
	RealtimePort string

	TemplateDir      string
	OutputDir        string
	MaxWorkers       int // 0 means GOMAXPROCS
	SofficePath      string
	FontDir          string
	TemplateCacheTTL time.Duration

	JWTConfig struct {
		Secret     string
		Expiration int // in minutes
	}
	MainDatabase DatabaseConfig
	RedisConfig  RedisConfig
	NatsURL      string
	SmtpConfig   SmtpConfig
}

var config = defaultConfig()

func defaultConfig() AppConfig {
	return AppConfig{
		Mode:             "dev",
		TemplateDir:      "templates",
		OutputDir:        "pdfs",
		SofficePath:      "soffice",
		TemplateCacheTTL: 10 * time.Minute,
	}
}

// InitConfig loads the env file for the HTTP server, builds the logger and
// connects every piece of infrastructure that is configured.
func InitConfig(envfile string) {
	err := godotenv.Load(envfile)
	if err != nil {
		log.Fatal(fmt.Sprintf("Error loading %s file: %s", envfile, err))
	}
	config = LoadConfig()
	config.Mode = getEnvOrPanic("RUN_MODE")
	config.ApiPort = getEnvOrPanic("API_PORT")
	if config.Mode != "dev" {
		config.JWTConfig.Secret = getEnvOrPanic("JWT_SECRET")
	}

	Logger = initLogger()

	if config.MainDatabase.Host != "" {
		db := config.MainDatabase
		DB = connectToPostgres(db.Host, db.User, db.Password, db.DatabaseName, db.Port, db.SSLMode)
	}
	if config.RedisConfig.Host != "" {
		Redis = connectToRedis(config.RedisConfig.Host, config.RedisConfig.Port, config.RedisConfig.Password, config.RedisConfig.DB)
	}
	if config.NatsURL != "" {
		Nats = connectToNats(config.NatsURL)
	}
}

// LoadEnv is the light-weight variant used by command line tools: the env
// file is optional and no infrastructure is connected.
func LoadEnv(envfile string) AppConfig {
	if envfile != "" {
		if err := godotenv.Load(envfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatal(fmt.Sprintf("Error loading %s file: %s", envfile, err))
		}
	}
	config = LoadConfig()
	Logger = initLogger()
	return config
}

// LoadConfig reads the process environment into an AppConfig, applying
// defaults for everything that is not set.
func LoadConfig() AppConfig {
	def := defaultConfig()
	cfg := AppConfig{
		Mode:             GetEnv("RUN_MODE", def.Mode),
		ApiPort:          GetEnv("API_PORT", ":8080"),
		RealtimePort:     GetEnv("REALTIME_PORT", ":8081"),
		TemplateDir:      GetEnv("TEMPLATE_DIR", def.TemplateDir),
		OutputDir:        GetEnv("OUTPUT_DIR", def.OutputDir),
		MaxWorkers:       getIntEnvOrDefault("MAX_WORKERS", 0),
		SofficePath:      GetEnv("SOFFICE_PATH", def.SofficePath),
		FontDir:          GetEnv("FONT_DIR", ""),
		TemplateCacheTTL: time.Duration(getIntEnvOrDefault("TEMPLATE_CACHE_TTL_SECONDS", int(def.TemplateCacheTTL/time.Second))) * time.Second,
		MainDatabase: DatabaseConfig{
			Host:         GetEnv("DB_HOSTNAME", ""),
			Port:         GetEnv("DB_PORT", "5432"),
			User:         GetEnv("DB_USERNAME", ""),
			Password:     GetEnv("DB_PASSWORD", ""),
			DatabaseName: GetEnv("DB_NAME", "docgen"),
			SSLMode:      GetEnv("DB_SSL_MODE", "disable"),
		},
		RedisConfig: RedisConfig{
			Host:     GetEnv("REDIS_HOST", ""),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnvOrDefault("REDIS_DB", 0),
		},
		NatsURL: GetEnv("NATS_URL", ""),
		SmtpConfig: SmtpConfig{
			Host:     GetEnv("SMTP_HOST", ""),
			Port:     getIntEnvOrDefault("SMTP_PORT", 587),
			Username: GetEnv("SMTP_USERNAME", ""),
			Password: GetEnv("SMTP_PASSWORD", ""),
			From:     GetEnv("SMTP_FROM", ""),
			UseTLS:   GetEnv("SMTP_USE_TLS", "false") == "true",
		},
	}
	cfg.JWTConfig.Secret = GetEnv("JWT_SECRET", "")
	cfg.JWTConfig.Expiration = getIntEnvOrDefault("JWT_EXPIRATION_MINUTES", 60)
	return cfg
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold: 0,
					LogLevel:      logger.Error,
				},
			),
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now()
			},
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			}}); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	return zerolog.New(output).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

// connectToNats is best-effort: progress events are optional, so a broker
// that is down only disables them.
func connectToNats(url string) *nats.Conn {
	nc, err := nats.Connect(url, nats.Name("docgen"))
	if err != nil {
		Logger.Warn().Err(err).Str("url", url).Msg("NATS connection failed, progress events disabled")
		return nil
	}
	return nc
}
