package gateway_fx

import (
	"os"

	"go.uber.org/fx"

	"lojinha/internal/services"
)

var Module = fx.Provide(provideGateway)

func provideGateway() (services.PaymentGatewayService, error) {
	return services.NewMercadoPagoGateway(services.MercadoPagoConfig{
		AccessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
	})
}
