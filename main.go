package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"PSocial/global/config"
	"PSocial/logger"
	mid "PSocial/middleware"
	chatmod "PSocial/module/chat"
	"PSocial/module/chat/message"
	chatsvc "PSocial/module/chat/service"
	"PSocial/module/post"
	poststore "PSocial/module/post/store"
	postsvc "PSocial/module/post/service"
	"PSocial/module/user"
	userstore "PSocial/module/user/store"
	usersvc "PSocial/module/user/service"
	"PSocial/service/chat"
	"PSocial/service/metrics"
	mgoSrv "PSocial/service/mgo"
	redis "PSocial/service/storage/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("[Boot] load config failed", zap.Error(err))
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) ids / middleware
	config.ConfigIds(cfg)
	config.ConfigMiddleware(cfg)

	// 2) mongo
	db, err := config.ConfigMgo(ctx, cfg)
	if err != nil {
		logger.Error("[Boot] mongo failed", zap.Error(err))
		os.Exit(1)
	}
	defer mgoSrv.Close()

	convStore := message.NewMongoStore(db)
	userRepo := userstore.NewMongoRepo(db)
	postRepo := poststore.NewMongoRepo(db)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return convStore.EnsureIndexes(gctx) })
	g.Go(func() error { return userRepo.EnsureIndexes(gctx) })
	g.Go(func() error { return postRepo.EnsureIndexes(gctx) })
	if err := g.Wait(); err != nil {
		logger.Error("[Boot] ensure indexes failed", zap.Error(err))
		os.Exit(1)
	}

	// 3) presence mirror (optional) + registry
	presence, err := config.ConfigRedis(ctx, cfg)
	if err != nil {
		logger.Warn("[Boot] redis unavailable, presence mirror disabled", zap.Error(err))
	}
	reg, stopMirror := config.ConfigRegistry(presence)
	defer stopMirror()
	defer func() { _ = redis.CloseRedis() }()

	// 4) event bus
	events, closeEvents, err := config.ConfigEvents(cfg)
	if err != nil {
		logger.Error("[Boot] event bus failed", zap.Error(err))
		os.Exit(1)
	}
	defer closeEvents()

	// 5) services
	users := usersvc.NewService(userRepo, config.JwtOptions(cfg))
	var msgOpts []chatsvc.MessengerOption
	if presence != nil {
		msgOpts = append(msgOpts, chatsvc.WithLocator(presence))
	}
	messenger := chatsvc.NewMessenger(convStore, reg, events, msgOpts...)
	notifier := chatsvc.NewNotifier(reg, events)
	posts := postsvc.NewService(postRepo, users, notifier)

	// 6) HTTP + WebSocket
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(mid.Recovery(), mid.AccessLog(), mid.Manager().Use())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "I'm coming from backend", "success": true})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	ws := chat.NewServer(reg, cfg.Cors.Origins, config.WsOptions(cfg))
	r.GET("/socket", ws.HandleWS) // ws://host/socket?userId=...

	api := r.Group("/api/v1")
	user.NewHandler(users).Routes(api)
	post.NewHandler(posts).Routes(api)
	chatmod.NewHandler(messenger, config.SendLimiter(cfg)).Routes(api)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Http.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("[HTTP] listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[HTTP] server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[Boot] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("[HTTP] shutdown", zap.Error(err))
	}
}
