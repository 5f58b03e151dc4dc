package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"lojinha/cmd/fx/db_fx"
	"lojinha/cmd/fx/gateway_fx"
	"lojinha/cmd/fx/mail_fx"
	"lojinha/cmd/fx/payment_fx"
	"lojinha/cmd/fx/plan_fx"
	"lojinha/cmd/fx/subscription_fx"
	"lojinha/internal/api/controllers"
	"lojinha/internal/services"
	"lojinha/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	app := fx.New(
		db_fx.Module,
		gateway_fx.Module,
		mail_fx.Module,
		plan_fx.Module,
		payment_fx.Module,
		subscription_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartSweep),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

// StartSweep runs the subscription sweep once at startup and then daily.
func StartSweep(lc fx.Lifecycle, subscriptionService services.SubscriptionServiceInterface) {
	sweepCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				subscriptionService.UpdateStatusesForAll(sweepCtx)

				ticker := time.NewTicker(24 * time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						subscriptionService.UpdateStatusesForAll(sweepCtx)
					case <-sweepCtx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}

func ProvideRouter(
	planController *controllers.PlanController,
	subscriptionController *controllers.SubscriptionController,
	paymentController *controllers.PaymentController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, planController, subscriptionController, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	planController *controllers.PlanController,
	subscriptionController *controllers.SubscriptionController,
	paymentController *controllers.PaymentController) {

	r.GET("/plans", planController.ListPlans)
	r.GET("/stores/:slug/active", subscriptionController.StoreGate)

	// Provider callbacks carry no bearer token.
	r.POST("/payments/webhook", paymentController.HandleWebhook)

	authed := r.Group("/subscriptions", middleware.JWTAuthMiddleware())
	authed.GET("/current", subscriptionController.GetCurrent)
	authed.POST("/renewal-payment", subscriptionController.CreateRenewalPayment)

	admin := r.Group("/", middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	admin.POST("/subscriptions/:id/renew", subscriptionController.Renew)
	admin.POST("/subscriptions/:id/suspend", subscriptionController.Suspend)
	admin.POST("/subscriptions/:id/activate", subscriptionController.Activate)
	admin.POST("/payments/:id/confirm", paymentController.ConfirmPayment)
	admin.POST("/payments/:id/reprocess", paymentController.Reprocess)
}
