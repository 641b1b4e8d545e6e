package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stagesync-service/internal/calsync"
	"stagesync-service/internal/config"
	"stagesync-service/internal/conflict"
	"stagesync-service/internal/directory"
	"stagesync-service/internal/email"
	"stagesync-service/internal/fcm"
	"stagesync-service/internal/gcal"
	"stagesync-service/internal/store"
	httptransport "stagesync-service/internal/transport/http"
	"stagesync-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

var startTime time.Time

func main() {
	startTime = time.Now()
	cfg := config.Load()
	log.Printf("🔧 Service expected token: %s******", cfg.ServiceExpectedToken[:6])
	store.InitDB(cfg)
	db := store.GetDB()
	st := store.NewStore(db)

	directoryService := directory.NewService(db, cfg.PlatformServiceURL, cfg.ServiceExpectedToken)
	log.Printf("🔄 [DIRECTORY] Profile sync service initialized (PlatformServiceURL: %s)", cfg.PlatformServiceURL)

	emailSender := email.NewSender(cfg)

	// Initialize FCM client
	var fcmClient *fcm.FCMClient
	fcmCredsJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
	if fcmCredsJSON != "" {
		client, err := fcm.NewFCMClient(context.Background(), []byte(fcmCredsJSON))
		if err != nil {
			log.Fatalf("❌ Failed to initialize FCM: %v", err)
		}
		fcmClient = client
		log.Println("✅ FCM client initialized")
	} else {
		log.Println("⚠️ FCM disabled (no FIREBASE_CREDENTIALS_JSON)")
	}

	// Initialize R2 report archive
	var reportArchive *utils.ReportR2Client
	if cfg.R2AccountID != "" {
		r2Config := utils.ReportR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}
		client, err := utils.NewReportR2Client(r2Config)
		if err != nil {
			log.Fatalf("❌ [R2] Failed to initialize report archive: %v", err)
		}
		reportArchive = client
		log.Println("✅ [R2] Sync report archive initialized")
	} else {
		log.Println("⚠️ [R2] Report archiving disabled (no R2_ACCOUNT_ID)")
	}

	deps := calsync.Deps{
		Credentials: st,
		Refresher:   gcal.NewRefresher(cfg.GoogleClientID, cfg.GoogleClientSecret),
		Settings:    st,
		Source:      st,
		Mappings:    st,
		Calendar:    gcal.NewClient(),
		Runs:        st,
		Alerts:      &emailAlerter{sender: emailSender, st: st},
	}
	if reportArchive != nil {
		deps.Archive = reportArchive
	}
	if fcmClient != nil {
		deps.Notifier = &pushNotifier{fcm: fcmClient, st: st}
	}
	engine := calsync.NewEngine(deps)
	conflictService := conflict.NewService(db)
	handler := httptransport.NewHandler(engine, conflictService, st)
	log.Println("✅ [SERVICE] Sync engine, conflict service & handler initialized")

	app := fiber.New(fiber.Config{
		AppName:      "stagesync-service",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())

	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")

	// CORS configuration:
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-Device-ID,X-User-ID,X-Service-Token,Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${ua}\n",
	}))

	// 1. User routes (via Gateway — secured)
	gatewayUserRoutes := app.Group("/v2", gatewayAuth())
	gatewayUserRoutes.Post("/sync/google", handler.SyncGoogleCalendar)
	gatewayUserRoutes.Get("/user/:user_id/sync-settings", handler.GetSyncSettings)
	gatewayUserRoutes.Put("/user/:user_id/sync-settings", handler.UpdateSyncSettings)
	gatewayUserRoutes.Get("/user/:user_id/sync-runs", handler.GetSyncRuns)
	gatewayUserRoutes.Get("/user/:user_id/conflicts/check", handler.CheckConflict)
	gatewayUserRoutes.Get("/rehearsals/:event_id/conflicts", handler.EventConflicts)
	gatewayUserRoutes.Post("/user/:user_id/fcm-token", handler.RegisterFCMToken)
	gatewayUserRoutes.Delete("/user/:user_id/fcm-token", handler.UnregisterFCMToken)
	log.Println("✅ [ROUTES] Registered user routes: /v2/sync/google, /v2/user/:user_id/*, /v2/rehearsals/:event_id/conflicts")

	// 2. Service-to-service routes
	serviceRoutes := app.Group("/svc/v1", serviceAuth(cfg))
	serviceRoutes.Get("/sync/users", func(c *fiber.Ctx) error {
		sinceStr := c.Query("since")
		log.Printf("[DIRECTORY] Request to sync profiles since: %q", sinceStr)
		if sinceStr == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query parameter 'since' is required (format: RFC3339)",
			})
		}
		sinceTime, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid 'since' format. Expected RFC3339, got: %s", sinceStr),
			})
		}
		if err := directoryService.SyncUsersSince(c.Context(), sinceTime); err != nil {
			log.Printf("[DIRECTORY] ❌ Sync failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("Failed to sync profiles: %v", err),
			})
		}
		log.Println("[DIRECTORY] ✅ Profiles synced successfully")
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Profiles synced successfully",
		})
	})
	log.Println("✅ [ROUTES] Registered service routes: /svc/v1/sync/users")

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		uptime := time.Since(startTime).Round(time.Second)
		return c.JSON(fiber.Map{
			"status":       "ok",
			"service":      "stagesync-service",
			"uptime":       uptime.String(),
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"platform_url": cfg.PlatformServiceURL,
			"fcm_enabled":  fcmClient != nil,
			"r2_enabled":   reportArchive != nil,
		})
	})
	log.Println("✅ [ROUTES] Registered /health")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("🛑 [SHUTDOWN] Graceful shutdown initiated...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ [SHUTDOWN] Error: %v", err)
		}
	}()

	log.Printf("🚀 stagesync-service starting...")
	log.Printf("   🔗 Listening on port: %s", cfg.ServerPort)
	log.Printf("   🌐 CORS allowed origins: %s", allowedOrigins)
	log.Printf("   📅 Google client configured: %t", cfg.GoogleClientID != "")
	log.Printf("   🔄 Platform sync URL: %s", cfg.PlatformServiceURL)
	log.Println("✅ Server ready.")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("❌ [STARTUP] Server failed to start: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var errMsg string
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		errMsg = e.Message
	} else {
		errMsg = err.Error()
	}
	log.Printf("🔥 [ERROR] [%d] %s %s → %v | IP=%s | UA=%s",
		code,
		c.Method(),
		c.Path(),
		errMsg,
		c.IP(),
		c.Get("User-Agent"),
	)
	return c.Status(code).JSON(fiber.Map{
		"error":      "something went wrong",
		"request_id": c.Get("X-Request-ID"),
	})
}

func serviceAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		maskedToken := "<empty>"
		if token != "" {
			if len(token) > 6 {
				maskedToken = token[:6] + "..."
			} else {
				maskedToken = token
			}
		}
		if token != cfg.ServiceExpectedToken {
			log.Printf("[SERVICE-AUTH] ❌ REJECTED | IP=%s | Path=%s | Token=%s",
				c.IP(), c.Path(), maskedToken)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: invalid or missing service token",
			})
		}
		log.Printf("[SERVICE-AUTH] ✅ ACCEPTED | IP=%s | Path=%s", c.IP(), c.Path())
		return c.Next()
	}
}

func gatewayAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		deviceID := c.Get("X-Device-ID")
		if userID == "" || deviceID == "" {
			log.Printf("[GATEWAY-AUTH] ❌ REJECTED | IP=%s | Path=%s | UserID=%q | DeviceID=%q",
				c.IP(), c.Path(), userID, deviceID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized: missing user/device context from Gateway",
			})
		}
		return c.Next()
	}
}

// pushNotifier delivers the end-of-run summary to the user's devices.
type pushNotifier struct {
	fcm *fcm.FCMClient
	st  *store.Store
}

func (n *pushNotifier) SyncFinished(ctx context.Context, userID uuid.UUID, synced, errors int) {
	tokens, err := n.st.DeviceTokens(ctx, userID)
	if err != nil {
		log.Printf("⚠️ [FCM] Failed to load tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	body := fmt.Sprintf("%d categories synced to Google Calendar", synced)
	if errors > 0 {
		body = fmt.Sprintf("%d categories synced, %d failed", synced, errors)
	}
	data := map[string]string{
		"synced": strconv.Itoa(synced),
		"errors": strconv.Itoa(errors),
	}
	if err := n.fcm.SendToTokens(ctx, tokens, "Calendar sync finished", body, data); err != nil {
		log.Printf("⚠️ [FCM] Failed to push sync summary to user %s: %v", userID, err)
	}
}

// emailAlerter emails the user when their Google credential can no longer
// be refreshed.
type emailAlerter struct {
	sender *email.Sender
	st     *store.Store
}

func (a *emailAlerter) CredentialAlert(ctx context.Context, userID uuid.UUID, reason string) {
	user, err := a.st.UserByID(ctx, userID)
	if err != nil {
		log.Printf("⚠️ [ALERT] No local profile for user %s, skipping reconnect email: %v", userID, err)
		return
	}

	firstName := ""
	if user.FirstName != nil {
		firstName = *user.FirstName
	}
	log.Printf("📧 [ALERT] Sending reconnect email to user %s (reason: %s)", userID, reason)
	if err := a.sender.SendReconnectAlert(ctx, user.Email, firstName); err != nil {
		log.Printf("⚠️ [ALERT] Reconnect email failed for user %s: %v", userID, err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
