package config

import (
	"os"
	"strings"
	"time"

	"PSocial/tools"
	"PSocial/tools/errs"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EventBusNoop  = "noop"
	EventBusNats  = "nats"
	EventBusKafka = "kafka"
)

type AppConfig struct {
	NodeID int64      `yaml:"nodeId"` // 节点的Id, 雪花ID与 redis 在线集合都用它
	Http   HttpConfig `yaml:"http"`
	Mongo  MongoConfig
	Redis  RedisConfig
	Jwt    JwtConfig
	Events EventsConfig
	Cors   CorsConfig
	Log    LogConfig
	Ws     WsConfig
	Limit  LimitConfig
}

type HttpConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type MongoConfig struct {
	Uri         string        `yaml:"uri"`
	Database    string        `yaml:"database"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	MaxPoolSize int           `yaml:"maxPoolSize"`
	WaitReady   time.Duration `yaml:"waitReady"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"` // 空 = 不镜像在线状态
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PresenceTTL time.Duration `yaml:"presenceTTL"`
}

type JwtConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type EventsConfig struct {
	Bus                   string   `yaml:"bus"` // noop|nats|kafka
	QueueSize             int      `yaml:"queueSize"`
	NatsServers           []string `yaml:"natsServers"`
	NatsMode              string   `yaml:"natsMode"` // core|jetstream
	NatsPrefix            string   `yaml:"natsPrefix"`
	KafkaBrokers          []string `yaml:"kafkaBrokers"`
	KafkaAutoCreateTopics bool     `yaml:"kafkaAutoCreateTopics"`
}

// LimitConfig 发消息接口的每用户限流
type LimitConfig struct {
	SendRPS   float64 `yaml:"sendRPS"`
	SendBurst int     `yaml:"sendBurst"`
}

type CorsConfig struct {
	Origins []string `yaml:"origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type WsConfig struct {
	SendQueue    int           `yaml:"sendQueue"`
	PingInterval time.Duration `yaml:"pingInterval"`
	PongWait     time.Duration `yaml:"pongWait"`
}

func Default() AppConfig {
	return AppConfig{
		NodeID: 100,
		Http:   HttpConfig{Port: 8000, ShutdownTimeout: 10 * time.Second},
		Mongo: MongoConfig{
			Uri:         "mongodb://localhost:27017",
			Database:    "psocial",
			MaxPoolSize: 20,
			WaitReady:   30 * time.Second,
		},
		Redis:  RedisConfig{PresenceTTL: 2 * time.Minute},
		Jwt:    JwtConfig{TTL: 24 * time.Hour},
		Events: EventsConfig{Bus: EventBusNoop, QueueSize: 1024, NatsMode: "core", NatsPrefix: "psocial", KafkaAutoCreateTopics: true},
		Cors:   CorsConfig{Origins: []string{"http://localhost:5173"}},
		Log:    LogConfig{Level: "debug"},
		Ws:     WsConfig{SendQueue: 256, PingInterval: 30 * time.Second, PongWait: 60 * time.Second},
		Limit:  LimitConfig{SendRPS: 5, SendBurst: 20},
	}
}

// Load 顺序: 默认值 → .env → CONFIG_FILE (yaml) → 环境变量
func Load() (AppConfig, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, errs.WrapMsg(err, "load .env")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, errs.WrapMsg(err, "read config file", "path", path)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, errs.WrapMsg(err, "parse config file", "path", path)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *AppConfig) {
	cfg.NodeID = int64(tools.GetEnvInt("NODE_ID", int(cfg.NodeID)))
	cfg.Http.Port = tools.GetEnvInt("HTTP_PORT", tools.GetEnvInt("PORT", cfg.Http.Port))
	cfg.Mongo.Uri = tools.GetEnv("MONGO_URI", cfg.Mongo.Uri)
	cfg.Mongo.Database = tools.GetEnv("MONGO_DB", cfg.Mongo.Database)
	cfg.Redis.Addr = tools.GetEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = tools.GetEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Jwt.Secret = tools.GetEnv("JWT_SECRET", tools.GetEnv("SECRET_KEY", cfg.Jwt.Secret))
	cfg.Jwt.TTL = tools.GetEnvDuration("JWT_TTL", cfg.Jwt.TTL)
	cfg.Mongo.WaitReady = tools.GetEnvDuration("MONGO_WAIT_READY", cfg.Mongo.WaitReady)
	cfg.Events.Bus = strings.ToLower(tools.GetEnv("EVENT_BUS", cfg.Events.Bus))
	cfg.Events.NatsServers = tools.GetEnvList("NATS_SERVERS", cfg.Events.NatsServers)
	cfg.Events.KafkaBrokers = tools.GetEnvList("KAFKA_BROKERS", cfg.Events.KafkaBrokers)
	cfg.Events.KafkaAutoCreateTopics = tools.GetEnvBool("KAFKA_AUTO_CREATE_TOPICS", cfg.Events.KafkaAutoCreateTopics)
	cfg.Cors.Origins = tools.GetEnvList("CORS_ORIGIN", cfg.Cors.Origins)
	cfg.Log.Level = tools.GetEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Limit.SendBurst = tools.GetEnvInt("SEND_RATE_BURST", cfg.Limit.SendBurst)
}

func (c AppConfig) Validate() error {
	if c.Jwt.Secret == "" {
		return errs.ErrArgs.WrapMsg("JWT_SECRET is required")
	}
	if c.Mongo.Uri == "" || c.Mongo.Database == "" {
		return errs.ErrArgs.WrapMsg("mongo uri and database are required")
	}
	switch c.Events.Bus {
	case EventBusNoop, "":
	case EventBusNats:
		if len(c.Events.NatsServers) == 0 {
			return errs.ErrArgs.WrapMsg("NATS_SERVERS is required when EVENT_BUS=nats")
		}
	case EventBusKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			return errs.ErrArgs.WrapMsg("KAFKA_BROKERS is required when EVENT_BUS=kafka")
		}
	default:
		return errs.ErrArgs.WrapMsg("unknown EVENT_BUS", "bus", c.Events.Bus)
	}
	return nil
}
