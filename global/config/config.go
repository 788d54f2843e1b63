package config

import (
	"context"
	"strconv"
	"time"

	"PSocial/data/database/mgo/mongoutil"
	"PSocial/logger"
	mid "PSocial/middleware"
	midsec "PSocial/middleware/security"
	"PSocial/service/chat"
	"PSocial/service/dispatcher"
	"PSocial/service/kafka"
	"PSocial/service/metrics"
	mgoSrv "PSocial/service/mgo"
	"PSocial/service/natsx"
	"PSocial/service/storage"
	redis "PSocial/service/storage/redis"
	"PSocial/tools/errs"
	ids "PSocial/tools/ids"
	"PSocial/tools/security"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func ConfigIds(cfg AppConfig) {
	logger.Info("配置id生成", zap.Int64("node", cfg.NodeID))
	ids.SetNodeID(cfg.NodeID)
}

func JwtOptions(cfg AppConfig) security.Options {
	opts := security.DefaultOptions([]byte(cfg.Jwt.Secret))
	if cfg.Jwt.TTL > 0 {
		opts.TTL = cfg.Jwt.TTL
	}
	return opts
}

func ConfigMiddleware(cfg AppConfig) {
	opts := midsec.DefaultOptions([]byte(cfg.Jwt.Secret))
	opts.JWT = JwtOptions(cfg)
	mid.UseAuth(opts)
	mid.Manager().Add(mid.Origin(cfg.Cors.Origins))
}

// ConfigMgo 异步连接 + 等待首次就绪；之后断线由 MongoManager 自己重连
func ConfigMgo(ctx context.Context, cfg AppConfig) (*mongo.Database, error) {
	mgoSrv.StartAsync(ctx, &mongoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		MaxRetry:    3, // StartAsync 里自己做了指数退避
	})
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.WaitReady)
	defer cancel()
	if err := mgoSrv.WaitReady(waitCtx, mgoSrv.Manager()); err != nil {
		return nil, errs.WrapMsg(err, "mongo not ready", "uri", cfg.Mongo.Uri)
	}
	return mgoSrv.GetDB(), nil
}

// ConfigRedis returns nil when no address is configured; presence is then
// process-local only.
func ConfigRedis(ctx context.Context, cfg AppConfig) (*storage.PresenceStore, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("[Redis] REDIS_ADDR empty, presence mirror disabled")
		return nil, nil
	}
	err := redis.InitRedis(redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, err
	}
	ps := storage.NewPresenceStore(redis.GetRedis(), strconv.FormatInt(cfg.NodeID, 10), cfg.Redis.PresenceTTL)
	if err := ps.Reset(ctx); err != nil {
		logger.Warn("[Redis] reset presence failed", zap.Error(err))
	}
	return ps, nil
}

// ConfigEvents builds the domain event publisher for the configured bus.
// The returned close func flushes and releases the broker connection.
func ConfigEvents(cfg AppConfig) (dispatcher.Publisher, func(), error) {
	var (
		sink dispatcher.Sink
		err  error
	)
	switch cfg.Events.Bus {
	case EventBusNats:
		sink, err = dispatcher.NewNatsSink(natsx.NatsxConfig{
			Servers:       cfg.Events.NatsServers,
			Name:          "psocial-" + strconv.FormatInt(cfg.NodeID, 10),
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
		}, cfg.Events.NatsPrefix, natsx.ParseMode(cfg.Events.NatsMode))
	case EventBusKafka:
		kc := kafka.DefaultConfig()
		kc.Brokers = cfg.Events.KafkaBrokers
		kc.AutoCreateTopicsOnStart = cfg.Events.KafkaAutoCreateTopics
		sink, err = dispatcher.NewKafkaSink(kc)
	default:
		logger.Info("[Events] no event bus configured")
		return dispatcher.Noop{}, func() {}, nil
	}
	if err != nil {
		return nil, nil, errs.WrapMsg(err, "event bus", "bus", cfg.Events.Bus)
	}

	d := dispatcher.New(sink, dispatcher.Config{QueueSize: cfg.Events.QueueSize})
	d.OnDrop(func(topic string) { metrics.EventsDropped.WithLabelValues(topic).Inc() })
	logger.Info("[Events] event bus ready", zap.String("bus", cfg.Events.Bus))
	return d, func() { _ = d.Close() }, nil
}

// ConfigRegistry wires metrics and the optional Redis mirror into the registry.
// The returned stop func drains the mirror.
func ConfigRegistry(presence *storage.PresenceStore) (*chat.Registry, func()) {
	hooks := []chat.PresenceHook{
		func(_ string, _ bool, count int) { metrics.OnlineConnections.Set(float64(count)) },
	}
	stop := func() {}
	if presence != nil {
		w := chat.NewMirrorWorker(presence, 1024, logger.Named("presence-mirror"))
		hooks = append(hooks, w.Hook)
		stop = w.Stop
	}
	reg := chat.NewRegistry(
		chat.WithLogger(logger.Named("registry")),
		chat.WithPresenceHook(func(user string, online bool, count int) {
			for _, h := range hooks {
				h(user, online, count)
			}
		}),
		chat.WithPushObserver(func(event string, res chat.DeliveryResult) {
			metrics.PushTotal.WithLabelValues(event, res.String()).Inc()
		}),
	)
	return reg, stop
}

// SendLimiter 发消息接口的限流中间件
func SendLimiter(cfg AppConfig) gin.HandlerFunc {
	return mid.RateLimit(mid.RateLimitConfig{RPS: cfg.Limit.SendRPS, Burst: cfg.Limit.SendBurst})
}

func WsOptions(cfg AppConfig) chat.ConnOptions {
	return chat.ConnOptions{
		SendQueue:    cfg.Ws.SendQueue,
		PingInterval: cfg.Ws.PingInterval,
		PongWait:     cfg.Ws.PongWait,
	}
}
