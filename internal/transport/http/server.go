package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gigchat/internal/auth"
	"gigchat/internal/chat"
	"gigchat/internal/config"
	"gigchat/internal/store"
)

// NewServer builds the HTTP server: REST surface plus the live
// websocket upgrade route.
func NewServer(cfg *config.Config, authService *auth.Service, chats *chat.Service, st store.Store, liveHandler stdhttp.Handler, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	userHandlers := NewUserHandlers(authService, st, logger)
	chatHandlers := NewChatHandlers(chats, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api")
	api.POST("/register", userHandlers.Register)
	api.POST("/login", userHandlers.Login)
	api.GET("/users/:id", userHandlers.GetByID)

	authed := api.Group("")
	authed.Use(AuthMiddleware(authService, logger))
	authed.GET("/profile", userHandlers.Profile)
	authed.PUT("/profile", userHandlers.UpdateProfile)
	authed.GET("/users", userHandlers.Search)
	authed.POST("/chats/messages", chatHandlers.SendMessage)
	authed.GET("/chats/messages/:userId", chatHandlers.GetMessages)
	authed.GET("/chats/conversations", chatHandlers.GetConversations)

	// The live connection authenticates itself via its hello frame, not
	// the Authorization header.
	router.GET("/ws", gin.WrapH(liveHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
