package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/DrawQuiz/internal/adapters/signal"
	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/config"
	"github.com/dkeye/DrawQuiz/internal/core"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	sessionName = "DrawQuizSessions"
	tokenKey    = "client_token"
)

// VisitorTokenMiddleware keeps a verified credential in the visitor session, issuing one on first visit.
func VisitorTokenMiddleware(verifier core.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(tokenKey).(string)
		if _, ok := verifier.Verify(token); !ok {
			issued, id, err := verifier.Issue()
			if err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("issue visitor token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			session.Set(tokenKey, issued)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
			log.Info().Str("module", "adapters.http").Str("identity", string(id)).Msg("visitor token issued")
			token = issued
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

// bearer returns the credential from the Authorization header.
func bearer(c *gin.Context) string {
	token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return strings.TrimSpace(token)
}

// wsCredential prefers the Authorization header, then the token query, then the token already
// stored in the visitor session. It never issues one.
func wsCredential(c *gin.Context) string {
	if t := bearer(c); t != "" {
		return t
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	token, _ := sessions.Default(c).Get(tokenKey).(string)
	return token
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowOrigins = nil
		cc.AllowAllOrigins = true
		cc.AllowCredentials = false
	}
	return cc
}

func SetupRouter(ctx context.Context, cfg *config.Config, rooms *app.RoomService, verifier core.Verifier, ws *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/hc", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/hc2", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	h := &roomHandlers{rooms: rooms, publicURL: strings.TrimRight(cfg.PublicURL, "/")}
	api.POST("/rooms", h.create)
	api.GET("/rooms/:code", h.get)
	api.PATCH("/rooms/:code", h.update)
	api.POST("/rooms/:code/join", h.join)
	api.POST("/rooms/:code/leave", h.leave)
	api.POST("/rooms/:code/kick", h.kick)
	api.GET("/rooms/:code/qr", h.qr)

	visitor := api.Group("", VisitorTokenMiddleware(verifier))
	visitor.GET("/token", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": c.GetString(tokenKey)})
	})
	api.GET("/ws", func(c *gin.Context) {
		ws.HandleSignal(ctx, c, wsCredential(c))
	})

	return r
}
