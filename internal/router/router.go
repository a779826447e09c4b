package router

import (
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/handler"
	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Setting      *handler.SettingHandler
	Profile      *handler.ProfileHandler
	Class        *handler.ClassHandler
	Student      *handler.StudentHandler
	DailyLog     *handler.DailyLogHandler
	Health       *handler.HealthHandler
	Event        *handler.EventHandler
	Photo        *handler.PhotoHandler
	Notification *handler.NotificationHandler
	Dashboard    *handler.DashboardHandler
	WS           *handler.WSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	loginLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:      middleware.DefaultBrotliConfig.Quality,
		MinLength:    middleware.DefaultBrotliConfig.MinLength,
		SkipPrefixes: []string{"/uploads"},
	}))

	// Photo files get UUID names, so they never change once written.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(365 * 24 * time.Hour))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		authed := auth.Group("")
		authed.Use(middleware.RequireAuth(authService), middleware.CheckSession(authService))
		authed.POST("/logout", handlers.Auth.Logout)
		authed.GET("/me", handlers.Auth.Me)
		authed.PUT("/password", handlers.Auth.ChangePassword)
	}

	// ─── 2. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/notifications", handlers.WS.NotificationStream)
	}

	// ─── 3. API Group (JWT + session + RBAC) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.NoStore(),
		middleware.RequireAuth(authService),
		middleware.CheckSession(authService),
	)

	perm := middleware.RequirePermission

	// Institution & settings
	api.GET("/institution", perm(model.PermissionSettingsRead), handlers.Setting.GetInstitution)
	api.PUT("/institution", perm(model.PermissionSettingsWrite), handlers.Setting.UpdateInstitution)
	api.GET("/settings", perm(model.PermissionSettingsRead), handlers.Setting.GetAllSettings)
	api.PUT("/settings", perm(model.PermissionSettingsWrite), handlers.Setting.UpdateSettings)

	// Profiles
	profiles := api.Group("/profiles")
	{
		profiles.GET("", perm(model.PermissionProfilesRead), handlers.Profile.ListProfiles)
		profiles.POST("", perm(model.PermissionProfilesWrite), handlers.Profile.CreateProfile)
		profiles.GET("/:id", perm(model.PermissionProfilesRead), handlers.Profile.GetProfile)
		profiles.PUT("/:id", perm(model.PermissionProfilesWrite), handlers.Profile.UpdateProfile)
		profiles.DELETE("/:id", perm(model.PermissionProfilesWrite), handlers.Profile.DeleteProfile)
	}

	// Classes
	classes := api.Group("/classes")
	{
		classes.GET("", perm(model.PermissionClassesRead), handlers.Class.ListClasses)
		classes.POST("", perm(model.PermissionClassesWrite), handlers.Class.CreateClass)
		classes.GET("/:id", perm(model.PermissionClassesRead), handlers.Class.GetClass)
		classes.PUT("/:id", perm(model.PermissionClassesWrite), handlers.Class.UpdateClass)
		classes.DELETE("/:id", perm(model.PermissionClassesWrite), handlers.Class.DeleteClass)
	}

	// Students, guardians, pickups and roster spreadsheets
	students := api.Group("/students")
	{
		students.GET("", perm(model.PermissionStudentsRead), handlers.Student.ListStudents)
		students.POST("", perm(model.PermissionStudentsWrite), handlers.Student.CreateStudent)
		students.GET("/export", perm(model.PermissionReportsExport), handlers.Student.ExportStudents)
		students.POST("/import", perm(model.PermissionStudentsWrite), handlers.Student.ImportStudents)
		students.GET("/:id", perm(model.PermissionStudentsRead), handlers.Student.GetStudent)
		students.PUT("/:id", perm(model.PermissionStudentsWrite), handlers.Student.UpdateStudent)
		students.DELETE("/:id", perm(model.PermissionStudentsWrite), handlers.Student.DeleteStudent)

		students.GET("/:id/guardians", perm(model.PermissionStudentsRead), handlers.Student.ListGuardians)
		students.POST("/:id/guardians", perm(model.PermissionGuardiansWrite), handlers.Student.LinkGuardian)
		students.PUT("/:id/guardians/:profile_id", perm(model.PermissionGuardiansWrite), handlers.Student.UpdateGuardian)
		students.DELETE("/:id/guardians/:profile_id", perm(model.PermissionGuardiansWrite), handlers.Student.UnlinkGuardian)
		students.PUT("/:id/pickups", perm(model.PermissionGuardiansWrite), handlers.Student.UpdatePickups)
	}

	// Daily logs
	logs := api.Group("/daily-logs")
	{
		logs.GET("", perm(model.PermissionLogsRead), handlers.DailyLog.ListDailyLogs)
		logs.POST("", perm(model.PermissionLogsWrite), handlers.DailyLog.CreateDailyLog)
		logs.GET("/:id", perm(model.PermissionLogsRead), handlers.DailyLog.GetDailyLog)
		logs.PUT("/:id", perm(model.PermissionLogsWrite), handlers.DailyLog.UpdateDailyLog)
		logs.DELETE("/:id", perm(model.PermissionLogsWrite), handlers.DailyLog.DeleteDailyLog)
	}

	// Health: medications, incidents, vaccinations
	meds := api.Group("/medications")
	{
		meds.GET("", perm(model.PermissionHealthRead), handlers.Health.ListMedications)
		meds.GET("/due", perm(model.PermissionHealthRead), handlers.Health.DueMedications)
		meds.POST("", perm(model.PermissionHealthWrite), handlers.Health.CreateMedication)
		meds.GET("/:id", perm(model.PermissionHealthRead), handlers.Health.GetMedication)
		meds.PUT("/:id", perm(model.PermissionHealthWrite), handlers.Health.UpdateMedication)
		meds.DELETE("/:id", perm(model.PermissionHealthWrite), handlers.Health.DeleteMedication)
	}
	incidents := api.Group("/incidents")
	{
		incidents.GET("", perm(model.PermissionHealthRead), handlers.Health.ListIncidents)
		incidents.POST("", perm(model.PermissionHealthWrite), handlers.Health.CreateIncident)
		incidents.GET("/:id", perm(model.PermissionHealthRead), handlers.Health.GetIncident)
		incidents.PUT("/:id", perm(model.PermissionHealthWrite), handlers.Health.UpdateIncident)
		incidents.DELETE("/:id", perm(model.PermissionHealthWrite), handlers.Health.DeleteIncident)
	}
	vaccines := api.Group("/vaccinations")
	{
		vaccines.GET("", perm(model.PermissionHealthRead), handlers.Health.ListVaccinations)
		vaccines.GET("/overdue", perm(model.PermissionHealthRead), handlers.Health.OverdueVaccinations)
		vaccines.POST("", perm(model.PermissionHealthWrite), handlers.Health.CreateVaccination)
		vaccines.GET("/:id", perm(model.PermissionHealthRead), handlers.Health.GetVaccination)
		vaccines.PUT("/:id", perm(model.PermissionHealthWrite), handlers.Health.UpdateVaccination)
		vaccines.DELETE("/:id", perm(model.PermissionHealthWrite), handlers.Health.DeleteVaccination)
	}

	// Calendar
	events := api.Group("/events")
	{
		events.GET("", perm(model.PermissionEventsRead), handlers.Event.ListEvents)
		events.POST("", perm(model.PermissionEventsWrite), handlers.Event.CreateEvent)
		events.GET("/:id", perm(model.PermissionEventsRead), handlers.Event.GetEvent)
		events.PUT("/:id", perm(model.PermissionEventsWrite), handlers.Event.UpdateEvent)
		events.DELETE("/:id", perm(model.PermissionEventsWrite), handlers.Event.DeleteEvent)
	}

	// Photo album
	photos := api.Group("/photos")
	{
		photos.GET("", perm(model.PermissionPhotosRead), handlers.Photo.ListPhotos)
		photos.POST("", perm(model.PermissionPhotosWrite), handlers.Photo.UploadPhoto)
		photos.DELETE("/:id", perm(model.PermissionPhotosWrite), handlers.Photo.DeletePhoto)
	}

	// Notifications: every authenticated profile has an inbox
	notifications := api.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.ListNotifications)
		notifications.GET("/unread-count", handlers.Notification.UnreadCount)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
		notifications.POST("/:id/read", handlers.Notification.MarkRead)
		notifications.POST("", perm(model.PermissionNotificationsSend), handlers.Notification.SendNotification)
	}

	api.GET("/dashboard", perm(model.PermissionDashboardRead), handlers.Dashboard.GetDashboard)
	api.GET("/system/metrics", middleware.RequireRole(model.RoleAdmin), handlers.System.Metrics)

	return router
}
