package docgen

import (
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Optional infrastructure stays nil until InitConfig connects it.
var (
	DB     *gorm.DB
	Logger = zerolog.Nop()
	Redis  *redis.Client
	Nats   *nats.Conn
)
