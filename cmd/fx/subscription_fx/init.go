package subscription_fx

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"

	"lojinha/internal/api/controllers"
	"lojinha/internal/repositories"
	"lojinha/internal/services"
)

var Module = fx.Provide(
	provideSubscriptionService,
	controllers.NewSubscriptionController,
)

func provideSubscriptionService(
	subscriptionRepo repositories.ISubscriptionRepository,
	planRepo repositories.IPlanRepository,
	storeRepo repositories.IStoreRepository,
	paymentRepo repositories.IPaymentRepository,
	ledger services.PaymentService,
	mail services.IMailService,
	transactor repositories.Transactor,
) services.SubscriptionServiceInterface {
	cfg := services.SubscriptionConfig{
		ExpiringWindowDays: envInt("SUBSCRIPTION_EXPIRING_WINDOW_DAYS", 5),
		PendingTTL:         time.Duration(envInt("SUBSCRIPTION_PENDING_TTL_HOURS", 48)) * time.Hour,
		MaxPaymentAttempts: envInt("PAYMENT_MAX_ATTEMPTS", 3),
		AttemptWindow:      time.Duration(envInt("PAYMENT_ATTEMPT_WINDOW_HOURS", 24)) * time.Hour,
	}
	return services.NewSubscriptionService(subscriptionRepo, planRepo, storeRepo, paymentRepo, ledger, mail, transactor, cfg)
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
