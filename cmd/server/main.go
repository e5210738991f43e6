// Package main runs the CRM HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/realtyflow/crm/config"
	"github.com/realtyflow/crm/internal/auth"
	"github.com/realtyflow/crm/internal/automation"
	"github.com/realtyflow/crm/internal/billing"
	"github.com/realtyflow/crm/internal/contacts"
	"github.com/realtyflow/crm/internal/deals"
	"github.com/realtyflow/crm/internal/leads"
	"github.com/realtyflow/crm/internal/middleware"
	"github.com/realtyflow/crm/internal/properties"
	"github.com/realtyflow/crm/internal/tenancy"
	"github.com/realtyflow/crm/internal/tenants"
	"github.com/realtyflow/crm/pkg/database"
	"github.com/realtyflow/crm/pkg/queue"
	"github.com/realtyflow/crm/pkg/redis"
	"github.com/realtyflow/crm/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Tenancy gates
	tenancyStore := tenancy.NewRepository(pool)
	resolver := tenancy.NewResolver(tenancyStore)

	// Deals, pipelines, stages
	dealRepo := deals.NewRepository(pool)

	// Tenants and team
	tenantRepo := tenants.NewRepository(pool)
	tenantHandler := tenants.NewHandler(tenantRepo, authRepo, dealRepo, jobQueue, logger)

	// Properties
	propertyRepo := properties.NewRepository(pool)
	propertyHandler := properties.NewHandler(propertyRepo)

	// Contacts
	contactRepo := contacts.NewRepository(pool)
	contactHandler := contacts.NewHandler(contactRepo)

	// Leads
	leadRepo := leads.NewRepository(pool)
	leadHandler := leads.NewHandler(leadRepo, contactRepo)

	// Stage-change automation feeds the deals board
	automationSvc := automation.NewService(propertyRepo, leadRepo, tenantRepo, jobQueue, cfg.Automation, logger)
	dealHandler := deals.NewHandler(dealRepo, automationSvc)

	// Billing
	billingHandler := billing.NewHandler(tenantRepo, cfg, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Webhooks (no JWT; authenticated by provider signatures)
	router.POST("/webhooks/stripe", billingHandler.StripeWebhook)
	router.POST("/webhooks/razorpay", billingHandler.RazorpayWebhook)

	// Protected API. Tenant resolution runs on every authenticated request;
	// platform routes tolerate a missing tenant, tenant-scoped groups do not.
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, authRepo))
	api.Use(tenancy.ResolveTenant(resolver, tenancyStore))
	{
		api.GET("/auth/me", authHandler.Me)

		// Platform routes: usable before the user has any tenant.
		api.POST("/tenants", tenancy.RequireActiveSubscription(), tenantHandler.Signup)
		api.GET("/tenants", tenantHandler.ListMine)
	}

	// Tenant-scoped routes
	scoped := api.Group("")
	scoped.Use(tenancy.RequireTenant())
	{
		scoped.GET("/tenants/current", tenantHandler.Current)
		scoped.GET("/tenants/members", tenancy.RequireRole(tenancyStore, tenancy.RolesAdmin), tenantHandler.ListMembers)
		scoped.POST("/tenants/members/invite",
			tenancy.RequireRole(tenancyStore, tenancy.RolesAdmin), tenancy.RequireActiveSubscription(), tenantHandler.Invite)
		scoped.PATCH("/tenants/members/:userId/role",
			tenancy.RequireRole(tenancyStore, tenancy.RolesOwnerOnly), tenancy.RequireActiveSubscription(), tenantHandler.UpdateMemberRole)
		scoped.DELETE("/tenants/members/:userId",
			tenancy.RequireRole(tenancyStore, tenancy.RolesOwnerOnly), tenancy.RequireActiveSubscription(), tenantHandler.RemoveMember)

		// Billing (owner starts checkout)
		scoped.POST("/billing/checkout", tenancy.RequireRole(tenancyStore, tenancy.RolesOwnerOnly), billingHandler.CreateCheckoutSession)

		// Reads require membership; writes additionally require an active subscription.
		staff := tenancy.RequireRole(tenancyStore, tenancy.RolesStaff)
		admins := tenancy.RequireRole(tenancyStore, tenancy.RolesAdmin)
		activeSub := tenancy.RequireActiveSubscription()

		// Properties
		scoped.GET("/properties", staff, propertyHandler.List)
		scoped.GET("/properties/:id", staff, propertyHandler.GetByID)
		scoped.POST("/properties", staff, activeSub, propertyHandler.Create)
		scoped.PUT("/properties/:id", staff, activeSub, propertyHandler.Update)
		scoped.PATCH("/properties/:id/status", staff, activeSub, propertyHandler.UpdateStatus)
		scoped.DELETE("/properties/:id", staff, activeSub, propertyHandler.Delete)

		// Contacts
		scoped.GET("/contacts", staff, contactHandler.List)
		scoped.GET("/contacts/:id", staff, contactHandler.GetByID)
		scoped.POST("/contacts", staff, activeSub, contactHandler.Create)
		scoped.PUT("/contacts/:id", staff, activeSub, contactHandler.Update)
		scoped.DELETE("/contacts/:id", staff, activeSub, contactHandler.Delete)

		// Leads
		scoped.GET("/leads", staff, leadHandler.List)
		scoped.GET("/leads/:id", staff, leadHandler.GetByID)
		scoped.POST("/leads", staff, activeSub, leadHandler.Create)
		scoped.PUT("/leads/:id", staff, activeSub, leadHandler.Update)
		scoped.PATCH("/leads/:id/assign", staff, activeSub, leadHandler.Assign)
		scoped.POST("/leads/:id/convert", staff, activeSub, leadHandler.Convert)
		scoped.DELETE("/leads/:id", staff, activeSub, leadHandler.Delete)

		// Pipelines and stages (admins manage the board layout)
		scoped.GET("/pipelines", staff, dealHandler.ListPipelines)
		scoped.POST("/pipelines", admins, activeSub, dealHandler.CreatePipeline)
		scoped.GET("/pipelines/:id/stages", staff, dealHandler.ListStages)
		scoped.POST("/pipelines/:id/stages", admins, activeSub, dealHandler.CreateStage)

		// Deals
		scoped.GET("/deals", staff, dealHandler.List)
		scoped.GET("/deals/:id", staff, dealHandler.GetByID)
		scoped.POST("/deals", staff, activeSub, dealHandler.Create)
		scoped.PUT("/deals/:id", staff, activeSub, dealHandler.Update)
		scoped.PATCH("/deals/:id/move", staff, activeSub, dealHandler.Move)
		scoped.DELETE("/deals/:id", staff, activeSub, dealHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
