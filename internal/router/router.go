// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/HenshawIII/chainfrenTivi/internal/config"
	"github.com/HenshawIII/chainfrenTivi/internal/gate"
	"github.com/HenshawIII/chainfrenTivi/internal/handlers"
	"github.com/HenshawIII/chainfrenTivi/internal/livepeer"
	"github.com/HenshawIII/chainfrenTivi/internal/middleware"
	"github.com/HenshawIII/chainfrenTivi/internal/payments"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
	"github.com/HenshawIII/chainfrenTivi/internal/ws"
)

func Initialize(db *gorm.DB, cfg *config.Config, local gate.LocalStore, hub *ws.Hub) *gin.Engine {
	// Services
	livepeerClient := livepeer.NewClient(cfg.Livepeer.APIKey, cfg.Livepeer.BaseURL)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Storage service unavailable, image uploads disabled")
	}

	streamService := services.NewStreamService(db, livepeerClient)
	videoService := services.NewVideoService(db, livepeerClient)
	profileService := services.NewProfileService(db)
	chatService := services.NewChatService(db, streamService)
	accessService := services.NewAccessService(db, streamService, videoService)
	authService := services.NewAuthService(cfg, profileService)

	// Payment stack: a custodial session signer when the server holds a
	// key, and an on-chain verifier when an RPC endpoint is configured.
	executor, verifier := buildChainStack(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	streamHandler := handlers.NewStreamHandler(streamService)
	videoHandler := handlers.NewVideoHandler(videoService)
	profileHandler := handlers.NewProfileHandler(profileService)
	chatHandler := handlers.NewChatHandler(chatService, hub)
	accessHandler := handlers.NewAccessHandler(accessService, local, executor, verifier,
		payments.ModeToken, cfg.Chain.TokenDecimals)
	uploadHandler := handlers.NewUploadHandler(storageService)
	wsHandler := ws.NewChatHandler(hub, chatService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"network": cfg.Chain.Network,
		})
	})

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/nonce", authHandler.RequestNonce)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		streams := v1.Group("/streams")
		{
			streams.GET("", middleware.OptionalAuth(), streamHandler.ListStreams)
			streams.GET("/:playbackId", middleware.OptionalAuth(), streamHandler.GetStream)

			protected := streams.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", streamHandler.CreateStream)
				protected.PATCH("/:playbackId", streamHandler.UpdateStream)
				protected.DELETE("/:playbackId", streamHandler.DeleteStream)
			}
		}

		videos := v1.Group("/videos")
		{
			videos.GET("", middleware.OptionalAuth(), videoHandler.ListVideos)
			videos.GET("/:playbackId", middleware.OptionalAuth(), videoHandler.GetVideo)

			protected := videos.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", videoHandler.CreateVideo)
				protected.PATCH("/:playbackId", videoHandler.UpdateVideo)
				protected.DELETE("/:playbackId", videoHandler.DeleteVideo)
			}
		}

		creators := v1.Group("/creators")
		creators.Use(middleware.OptionalAuth())
		{
			creators.GET("/:creatorId/streams", streamHandler.ListCreatorStreams)
			creators.GET("/:creatorId/videos", videoHandler.ListCreatorVideos)
			creators.GET("/:creatorId/access", accessHandler.ChannelAccess)
		}

		access := v1.Group("/access")
		{
			access.GET("/:kind/:playbackId", middleware.OptionalAuth(), accessHandler.Resolve)

			paying := access.Group("")
			paying.Use(middleware.AuthRequired(), middleware.PaymentRateLimit())
			{
				paying.POST("/:kind/:playbackId/pay", accessHandler.Pay)
				paying.POST("/:kind/:playbackId/confirm", accessHandler.Confirm)
				paying.POST("/:kind/:playbackId/donate", accessHandler.Donate)
			}
		}

		profiles := v1.Group("/profiles")
		{
			profiles.GET("/subscriptions", middleware.AuthRequired(), profileHandler.ListSubscriptions)
			profiles.GET("/:creatorId", profileHandler.GetProfile)

			protected := profiles.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", profileHandler.UpsertProfile)
				protected.POST("/subscriptions/:creatorId", profileHandler.Subscribe)
				protected.DELETE("/subscriptions/:creatorId", profileHandler.Unsubscribe)
			}
		}

		chat := v1.Group("/chat")
		{
			chat.GET("/:playbackId/messages", chatHandler.ListMessages)
			chat.POST("/:playbackId/messages", middleware.AuthRequired(), chatHandler.SendMessage)
			chat.GET("/:playbackId/ws", wsHandler.Serve)
		}

		uploads := v1.Group("/uploads")
		uploads.Use(middleware.AuthRequired(), middleware.UploadRateLimit())
		{
			uploads.POST("/image", uploadHandler.UploadImage)
		}
	}

	return r
}

// buildChainStack wires the payment executor and the settlement verifier
// from chain config. Both degrade gracefully: without an RPC endpoint the
// /confirm path reports chain unavailable, and without a session key the
// gate simply reports the pay action disabled.
func buildChainStack(cfg *config.Config) (payments.Executor, *payments.Verifier) {
	var provider payments.SigningProvider = payments.NewStaticProvider(nil)
	var verifier *payments.Verifier

	if cfg.Chain.RPCURL != "" {
		client, err := payments.DialChain(cfg.Chain.RPCURL)
		if err != nil {
			logrus.WithError(err).Warn("Failed to dial chain RPC, payments run degraded")
		} else {
			if cfg.Chain.SessionKey != "" {
				signer, err := payments.NewKeySigner(client, cfg.Chain.SessionKey, cfg.Chain.ChainID)
				if err != nil {
					logrus.WithError(err).Warn("Invalid session key, server-side payment disabled")
				} else {
					provider = payments.NewStaticProvider(signer)
				}
			}

			v, err := payments.NewVerifier(client, cfg.Chain.TokenContract, cfg.Chain.Confirmations)
			if err != nil {
				logrus.WithError(err).Warn("Failed to build settlement verifier")
			} else {
				verifier = v
			}
		}
	}

	executor, err := payments.NewEVMExecutor(provider, cfg.Chain.TokenContract, cfg.Chain.TokenDecimals)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid token contract address")
	}

	return executor, verifier
}
