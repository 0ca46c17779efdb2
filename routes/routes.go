package routes

import (
	"timegrid/auth"
	"timegrid/hub"
	"timegrid/middleware"
	"timegrid/ratelim"
	"timegrid/reservations"
	"timegrid/schedule"
	"timegrid/settings"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.LogoutUser))
	router.POST("/api/auth/token/refresh", rl.Limit(auth.RefreshToken))
}

func AddReservationRoutes(router *httprouter.Router, h *hub.Hub) {
	router.GET("/api/reservations", reservations.GetReservations)
	router.POST("/api/reservations", middleware.Authenticate(reservations.CreateReservations(h)))
}

func AddAdminRoutes(router *httprouter.Router, h *hub.Hub, sched *schedule.Scheduler) {
	router.POST("/api/admin/reservation", middleware.AdminOnly(reservations.AdminUpsertReservation(h)))
	router.DELETE("/api/admin/reservation", middleware.AdminOnly(reservations.AdminDeleteReservation(h)))
	router.POST("/api/admin/reservations/clear", middleware.AdminOnly(reservations.AdminClearReservations(h)))

	router.POST("/api/admin/upload/users", middleware.AdminOnly(auth.UploadUsers))

	router.GET("/api/admin/settings", middleware.AdminOnly(settings.GetSettings))
	router.PUT("/api/admin/settings", middleware.AdminOnly(settings.UpdateSettings))

	router.POST("/api/admin/schedule", middleware.AdminOnly(schedule.SetSchedule(sched)))
	router.GET("/api/admin/schedule", middleware.AdminOnly(schedule.GetSchedule))
}

func AddFeedRoutes(router *httprouter.Router, h *hub.Hub) {
	router.GET("/ws", hub.WebSocketHandler(h))
}

func AddUtilityRoutes(router *httprouter.Router) {
	router.GET("/api/schedule/open-time", settings.GetOpenTime)
	router.GET("/api/time", settings.GetServerTime)
}
