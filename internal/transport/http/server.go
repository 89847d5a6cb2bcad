package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/auth"
	"github.com/studylink/studylink-server/internal/config"
	"github.com/studylink/studylink-server/internal/relay"
	"github.com/studylink/studylink-server/internal/service/appointments"
	"github.com/studylink/studylink-server/internal/service/connections"
	"github.com/studylink/studylink-server/internal/service/reports"
	"github.com/studylink/studylink-server/internal/store"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Hub          *relay.Hub
	Store        store.Store
	AuthService  *auth.Service
	Connections  *connections.Service
	Appointments *appointments.Service
	Reports      *reports.Service
	Config       *config.Config
	Log          *zerolog.Logger
}

// NewServer builds the HTTP server with all routes attached.
func NewServer(d Deps) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(d.Log))

	authHandlers := NewAuthHandlers(d.AuthService, d.Log)
	userHandlers := NewUserHandlers(d.Store, d.Log)
	connectionHandlers := NewConnectionsHandlers(d.Connections, d.Store, d.Log)
	appointmentHandlers := NewAppointmentsHandlers(d.Appointments, d.Log)
	messageHandlers := NewMessagesHandlers(d.Store, d.Hub, d.Log)
	reportHandlers := NewReportsHandlers(d.Reports, d.Store, d.Log)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	router.GET("/ws", gin.WrapH(NewWSHandler(d.Hub, d.Config.WSMessageRateLimit, d.Log)))

	// Trusted internal fanout hop; keep it off the public /api surface.
	router.POST("/broadcast", messageHandlers.Broadcast)

	api := router.Group("/api")
	api.POST("/register", authHandlers.Register)
	api.POST("/login", authHandlers.Login)

	authed := api.Group("", AuthMiddleware(d.AuthService, d.Log))
	{
		authed.GET("/users/me", userHandlers.Me)
		authed.GET("/users/search", userHandlers.SearchUsers)
		authed.GET("/users/:id", userHandlers.GetUser)

		authed.POST("/connections/request", connectionHandlers.SendRequest)
		authed.GET("/connections/pending", connectionHandlers.ListPending)
		authed.GET("/connections/accepted", connectionHandlers.ListAccepted)
		authed.GET("/connections/status/:userId", connectionHandlers.Status)
		authed.PUT("/connections/:id/accept", connectionHandlers.Accept)
		authed.PUT("/connections/:id/reject", connectionHandlers.Reject)
		authed.DELETE("/connections/cancel/:receiverId", connectionHandlers.Cancel)
		authed.DELETE("/connections/disconnect", connectionHandlers.Disconnect)

		authed.POST("/messages", messageHandlers.Send)
		authed.GET("/messages/:roomId", messageHandlers.History)

		authed.POST("/appointments", appointmentHandlers.Create)
		authed.GET("/appointments", appointmentHandlers.ListMine)
		authed.GET("/appointments/:id", appointmentHandlers.Get)
		authed.PATCH("/appointments/:id/status", appointmentHandlers.UpdateStatus)
		authed.DELETE("/appointments/:id", appointmentHandlers.Destroy)

		authed.POST("/reports", reportHandlers.Create)
		authed.GET("/reports/warnings", reportHandlers.MyWarnings)

		admins := authed.Group("/admins", AdminMiddleware(d.Log))
		{
			admins.GET("/reports", reportHandlers.ListAll)
			admins.PUT("/reports/:id/status", reportHandlers.UpdateStatus)
			admins.PUT("/lock/:id", reportHandlers.LockUser)
		}
	}

	return &stdhttp.Server{
		Addr:              d.Config.Addr,
		Handler:           router,
		ReadHeaderTimeout: d.Config.ReadHeaderTimeout,
	}
}
