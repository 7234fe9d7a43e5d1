// package main

// import (
// 	"fmt"
// 	"log"
// 	"os"
// 	"tenantdesk-server/routes"
// 	"tenantdesk-server/storage"
// 	"tenantdesk-server/utils"

// 	"github.com/go-playground/validator/v10"
// 	"github.com/joho/godotenv"
// 	"github.com/kataras/iris/v12"
// 	"github.com/kataras/iris/v12/middleware/jwt"
// )

// func main() {
// 	godotenv.Load()
// 	storage.InitializeDB()
// 	storage.InitializeS3()
// 	storage.InitializeRedis()

// 	app := iris.New()
// 	app.Validator = validator.New()

// 	// CORS for the manager dashboard (http://localhost:3000)
// 	app.AllowMethods(iris.MethodOptions)
// 	app.UseRouter(func(ctx iris.Context) {
// 		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
// 		ctx.Header("Vary", "Origin")
// 		ctx.Header("Access-Control-Allow-Credentials", "true")
// 		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
// 		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
// 		if ctx.Method() == iris.MethodOptions {
// 			ctx.StatusCode(iris.StatusNoContent)
// 			return
// 		}
// 		ctx.Next()
// 	})

// 	// Add only essential middleware, skip request logging
// 	app.Use(iris.Compression)

// 	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
// 	resetTokenVerifier.WithDefaultBlocklist()
// 	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
// 		return new(utils.ForgotPasswordToken)
// 	})

// 	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
// 	accessTokenVerifier.WithDefaultBlocklist()
// 	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
// 		return new(utils.AccessToken)
// 	})

// 	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
// 	refreshTokenVerifier.WithDefaultBlocklist()
// 	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
// 		return new(jwt.Claims)
// 	})

// 	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
// 		var tokenInput utils.RefreshTokenInput
// 		err := ctx.ReadJSON(&tokenInput)
// 		if err != nil {
// 			return ""
// 		}

// 		return tokenInput.RefreshToken
// 	})

// 	user := app.Party("/api/user")
// 	{
// 		user.Post("/register", routes.Register)
// 		user.Post("/login", routes.Login)
// 		user.Post("/register-phone", routes.RegisterPhone)
// 		user.Post("/login-phone", routes.LoginPhone)
// 		user.Post("/google", routes.GoogleLoginOrSignUp)
// 		user.Post("/apple", routes.AppleLoginOrSignUp)
// 		user.Post("/forgotpassword", routes.ForgotPassword)
// 		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
// 		user.Get("/search", accessTokenVerifierMiddleware, routes.SearchUsers)
// 		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
// 		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
// 		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
// 		user.Get("/unit", accessTokenVerifierMiddleware, routes.GetMyUnit)
// 		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
// 		user.Get("/profile/status", accessTokenVerifierMiddleware, routes.GetUserProfileStatus)
// 		// Feedback
// 		user.Post("/feedback", accessTokenVerifierMiddleware, routes.CreateFeedback)

// 		// User Profile routes
// 		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetUserProfile)
// 		user.Post("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
// 		user.Put("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
// 		user.Delete("/profile", accessTokenVerifierMiddleware, routes.DeleteUserProfile)
// 	}

// 	inquiry := app.Party("/api/inquiry")
// 	{
// 		inquiry.Post("/", accessTokenVerifierMiddleware, routes.CreateInquiry)
// 		inquiry.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyInquiries)
// 		inquiry.Get("/managed", accessTokenVerifierMiddleware, routes.GetManagedInquiries)
// 		inquiry.Get("/{id}", accessTokenVerifierMiddleware, routes.GetInquiry)
// 		inquiry.Get("/{id}/thread", accessTokenVerifierMiddleware, routes.GetInquiryThread)
// 		inquiry.Post("/{id}/messages", accessTokenVerifierMiddleware, routes.SendInquiryMessage)
// 		inquiry.Patch("/{id}/status", accessTokenVerifierMiddleware, routes.UpdateInquiryStatus)
// 	}

// 	maintenance := app.Party("/api/maintenance")
// 	{
// 		maintenance.Post("/", accessTokenVerifierMiddleware, routes.CreateMaintenanceRequest)
// 		maintenance.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyMaintenanceRequests)
// 		maintenance.Get("/managed", accessTokenVerifierMiddleware, routes.GetManagedMaintenanceRequests)
// 		maintenance.Get("/{id}", accessTokenVerifierMiddleware, routes.GetMaintenanceRequest)
// 		maintenance.Patch("/{id}", accessTokenVerifierMiddleware, routes.UpdateMaintenanceRequest)
// 	}

// 	property := app.Party("/api/property")
// 	{
// 		property.Post("/", accessTokenVerifierMiddleware, routes.CreateProperty)
// 		property.Get("/managed", accessTokenVerifierMiddleware, routes.GetManagedProperties)
// 		property.Get("/{id}", routes.GetProperty)
// 		property.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteProperty)
// 		property.Patch("/update/{id}", accessTokenVerifierMiddleware, routes.UpdateProperty)
// 		property.Post("/{id}/tenants", accessTokenVerifierMiddleware, routes.AssignTenant)
// 		property.Delete("/{id}/tenants/{tenantID}", accessTokenVerifierMiddleware, routes.RemoveTenant)
// 		property.Delete("/image", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeletePropertyImage)
// 	}

// 	notifications := app.Party("/api/notifications")
// 	{
// 		notifications.Post("/test-push", routes.SendTestNotification)
// 		notifications.Post("/test-detailed/{userID:int}", routes.SendDetailedTestNotification)
// 		notifications.Get("/settings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUserNotificationSettings)
// 		notifications.Put("/settings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateUserNotificationSettings)
// 	}

// 	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

// 	// // Get the port from the environment, fallback to 8080
// 	// port := os.Getenv("PORT")
// 	// if port == "" {
// 	// 	port = "4000"
// 	// }

// 	// app.Listen(":" + port) // notice the ":" before the port
// 	// Get Render's assigned PORT
// 	// Get Render's PORT
// 	port := os.Getenv("PORT")
// 	if port == "" {
// 		port = "4000" // fallback for local dev
// 	}
// 	addr := ":" + port

// 	fmt.Println("🚀 Starting server on 🆗🆗🆗", addr)

// 	// Listen once and handle errors
// 	if err := app.Listen(addr); err != nil {
// 		log.Fatalf("❌ failed to start server: %v", err)
// 	}

// }

package main

import (
	"fmt"
	"log"
	"os"
	"tenantdesk-server/routes"
	"tenantdesk-server/services"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeS3()
	storage.InitializeRedis()
	services.InitializeSlack()

	scheduler := services.NewScheduler()
	scheduler.Start()
	iris.RegisterOnInterrupt(scheduler.Stop)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.UseRouter(utils.MetricsMiddleware)

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint - CRITICAL for Render
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	app.Get("/metrics", iris.FromStd(promhttp.Handler()))

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/register-phone", routes.RegisterPhone)
		user.Post("/login-phone", routes.LoginPhone)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Get("/search", accessTokenVerifierMiddleware, routes.SearchUsers)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
		user.Get("/unit", accessTokenVerifierMiddleware, routes.GetMyUnit)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
		user.Get("/profile/status", accessTokenVerifierMiddleware, routes.GetUserProfileStatus)
		user.Post("/feedback", accessTokenVerifierMiddleware, routes.CreateFeedback)
		user.Get("/profile", accessTokenVerifierMiddleware, routes.GetUserProfile)
		user.Post("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
		user.Put("/profile", accessTokenVerifierMiddleware, routes.CreateOrUpdateUserProfile)
		user.Delete("/profile", accessTokenVerifierMiddleware, routes.DeleteUserProfile)
	}

	inquiry := app.Party("/api/inquiry")
	{
		inquiry.Post("/", accessTokenVerifierMiddleware, routes.CreateInquiry)
		inquiry.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyInquiries)
		inquiry.Get("/managed", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.GetManagedInquiries)
		inquiry.Get("/{id}", accessTokenVerifierMiddleware, routes.GetInquiry)
		inquiry.Get("/{id}/thread", accessTokenVerifierMiddleware, routes.GetInquiryThread)
		inquiry.Post("/{id}/messages", accessTokenVerifierMiddleware, routes.SendInquiryMessage)
		inquiry.Patch("/{id}/status", accessTokenVerifierMiddleware, routes.UpdateInquiryStatus)
		inquiry.Post("/{id}/typing", accessTokenVerifierMiddleware, routes.SetTypingIndicator)
		inquiry.Get("/{id}/typing", accessTokenVerifierMiddleware, routes.GetTypingIndicator)
		inquiry.Get("/{id}/live", accessTokenVerifierMiddleware, routes.InquiryLive)
		inquiry.Post("/{id}/attachments", accessTokenVerifierMiddleware, routes.UploadInquiryAttachment)
		inquiry.Get("/{id}/attachments", accessTokenVerifierMiddleware, routes.GetInquiryAttachments)
		inquiry.Delete("/{id}/attachments/{attachmentID}", accessTokenVerifierMiddleware, routes.DeleteInquiryAttachment)
	}

	maintenance := app.Party("/api/maintenance")
	{
		maintenance.Post("/", accessTokenVerifierMiddleware, routes.CreateMaintenanceRequest)
		maintenance.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyMaintenanceRequests)
		maintenance.Get("/managed", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.GetManagedMaintenanceRequests)
		maintenance.Get("/{id}", accessTokenVerifierMiddleware, routes.GetMaintenanceRequest)
		maintenance.Patch("/{id}", accessTokenVerifierMiddleware, routes.UpdateMaintenanceRequest)
	}

	announcements := app.Party("/api/announcements")
	{
		announcements.Post("/", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.CreateAnnouncement)
		announcements.Get("/", accessTokenVerifierMiddleware, routes.GetAnnouncements)
		announcements.Patch("/{id}", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.UpdateAnnouncement)
		announcements.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteAnnouncement)
	}

	documents := app.Party("/api/documents")
	{
		documents.Post("/", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.UploadDocument)
		documents.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyDocuments)
		documents.Get("/managed", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.GetManagedDocuments)
		documents.Get("/{id}", accessTokenVerifierMiddleware, routes.GetDocument)
		documents.Patch("/{id}/share", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.ShareDocument)
		documents.Delete("/{id}", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.DeleteDocument)
	}

	property := app.Party("/api/property")
	{
		property.Post("/", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.CreateProperty)
		property.Get("/managed", accessTokenVerifierMiddleware, utils.ManagerOnlyMiddleware, routes.GetManagedProperties)
		property.Get("/{id}", routes.GetProperty)
		property.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteProperty)
		property.Patch("/update/{id}", accessTokenVerifierMiddleware, routes.UpdateProperty)
		property.Post("/{id}/tenants", accessTokenVerifierMiddleware, routes.AssignTenant)
		property.Delete("/{id}/tenants/{tenantID}", accessTokenVerifierMiddleware, routes.RemoveTenant)
		property.Delete("/image", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeletePropertyImage)
	}

	notifications := app.Party("/api/notifications")
	{
		notifications.Get("/", accessTokenVerifierMiddleware, routes.GetMyNotifications)
		notifications.Patch("/{id}/read", accessTokenVerifierMiddleware, routes.MarkNotificationRead)
		notifications.Post("/read-all", accessTokenVerifierMiddleware, routes.MarkAllNotificationsRead)
		notifications.Get("/settings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUserNotificationSettings)
		notifications.Put("/settings", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateUserNotificationSettings)
		notifications.Post("/test-push", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.SendTestNotification)
		notifications.Post("/test-detailed/{userID:int}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.SendDetailedTestNotification)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Get("/users/{id:uint}", routes.AdminGetUser)
		admin.Patch("/users/{id:uint}/role", utils.SuperAdminOnlyMiddleware, routes.AdminChangeUserRole)
		admin.Post("/users/{id:uint}/deactivate", routes.AdminDeactivateUser)
		admin.Post("/users/{id:uint}/reactivate", routes.AdminReactivateUser)
		admin.Get("/feedback", routes.AdminListFeedback)
		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
		admin.Post("/export", routes.AdminCreateExport)
		admin.Get("/export/{id:string}", routes.AdminGetExport)
		admin.Get("/export/{id:string}/download", routes.AdminDownloadExport)
		admin.Post("/import/inquiries", routes.AdminImportInquiries)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	// Start server
	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
