package payment_fx

import (
	"os"
	"time"

	"go.uber.org/fx"

	"lojinha/internal/api/controllers"
	"lojinha/internal/repositories"
	"lojinha/internal/services"
)

var Module = fx.Provide(
	providePaymentService,
	controllers.NewPaymentController,
)

func providePaymentService(
	paymentRepo repositories.IPaymentRepository,
	subscriptionRepo repositories.ISubscriptionRepository,
	storeRepo repositories.IStoreRepository,
	gateway services.PaymentGatewayService,
	mail services.IMailService,
	transactor repositories.Transactor,
) services.PaymentService {
	cfg := services.PaymentConfig{
		PaymentTTL:   30 * time.Minute,
		PixKey:       os.Getenv("PIX_KEY"),
		MerchantName: os.Getenv("PIX_MERCHANT_NAME"),
		MerchantCity: os.Getenv("PIX_MERCHANT_CITY"),
	}
	return services.NewPaymentService(paymentRepo, subscriptionRepo, storeRepo, gateway, mail, transactor, cfg)
}
