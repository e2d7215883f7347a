package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"discord-giveaway-bot/internal/common/config"
	"discord-giveaway-bot/internal/common/logger"
	"discord-giveaway-bot/internal/common/middleware"
	giveawayhttp "discord-giveaway-bot/internal/features/giveaway/delivery/http"
	redisrepo "discord-giveaway-bot/internal/features/giveaway/repository/redis"
	"discord-giveaway-bot/internal/features/giveaway/service"
	"discord-giveaway-bot/internal/platform/discord"
)

func main() {
	cfg := config.Load()

	logger.Init("discord-giveaway-bot", cfg.Debug)
	log := logger.Get()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	cancel()
	log.Info().Str("host", cfg.Redis.Host).Int("port", cfg.Redis.Port).Msg("connected to redis")

	discordClient, err := discord.NewClient(cfg.Discord.BotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord client")
	}

	giveawayRepo := redisrepo.NewRepository(redisClient)
	lockStore := redisrepo.NewLockStore(redisClient)
	archiveStore := redisrepo.NewArchiveStore(redisClient)
	templateStore := redisrepo.NewTemplateStore(redisClient)

	selector := service.NewSelector(rand.NewSource(time.Now().UnixNano()))

	processor := service.NewEndProcessor(
		giveawayRepo, lockStore, archiveStore,
		discordClient, discordClient, discordClient,
		selector, cfg, log,
	)
	sweeper := service.NewSweeper(
		giveawayRepo, processor, discordClient,
		cfg.Giveaway.SweepInterval, cfg.Giveaway.RefreshInterval, log,
	)
	participation := service.NewParticipationService(giveawayRepo, discordClient, cfg.Giveaway.JoinCooldown, log)
	rerolls := service.NewRerollService(archiveStore, discordClient, selector, log)
	giveaways := service.NewGiveawayService(
		giveawayRepo, lockStore, templateStore,
		discordClient, sweeper, processor, cfg, log,
	)

	discordClient.RegisterInteractionHandlers(participation)
	if err := discordClient.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to open discord gateway connection")
	}
	log.Info().Msg("discord gateway connected")

	sweeper.Start()

	router := gin.New()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	giveawayhttp.NewHandler(giveaways, rerolls, log).RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	sweeper.Stop()

	if err := discordClient.Close(); err != nil {
		log.Error().Err(err).Msg("discord close failed")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}

	log.Info().Msg("shutdown complete")
}
