package payment

import (
	"strings"
)

// Provider identifier prefixes and sentinels recognised by the storefront.
const (
	stripePrefix       = "pp_stripe_"
	paypalPrefix       = "pp_paypal"
	manualPrefix       = "pp_system_default"
	mercadoPagoPrefix  = "pp_mercadopago"
	MercadoCreditoID   = "pp_mercadocredito_virtual"
	fallbackIconRef    = "credit-card"
	fallbackTitleLabel = "Payment"
)

// Capabilities are the behaviour flags derived from a provider identifier.
type Capabilities struct {
	IsStripe         bool `json:"isStripe"`
	IsPaypal         bool `json:"isPaypal"`
	IsManual         bool `json:"isManual"`
	IsMercadoPago    bool `json:"isMercadoPago"`
	IsMercadoCredito bool `json:"isMercadoCredito"`
}

// IsStripe matches pp_stripe_* but not the pp_stripe-<method>_* variants.
func IsStripe(id string) bool {
	return strings.HasPrefix(id, stripePrefix)
}

// IsPaypal matches PayPal providers.
func IsPaypal(id string) bool {
	return strings.HasPrefix(id, paypalPrefix)
}

// IsManual matches the system default (manual) provider.
func IsManual(id string) bool {
	return strings.HasPrefix(id, manualPrefix)
}

// IsMercadoPago matches Mercado Pago providers.
func IsMercadoPago(id string) bool {
	return strings.HasPrefix(id, mercadoPagoPrefix)
}

// IsMercadoCredito matches the virtual identifier used to display deferred payments.
func IsMercadoCredito(id string) bool {
	return id == MercadoCreditoID
}

// Classify evaluates every predicate for id.
func Classify(id string) Capabilities {
	return Capabilities{
		IsStripe:         IsStripe(id),
		IsPaypal:         IsPaypal(id),
		IsManual:         IsManual(id),
		IsMercadoPago:    IsMercadoPago(id),
		IsMercadoCredito: IsMercadoCredito(id),
	}
}

// Known reports whether any predicate matched.
func (c Capabilities) Known() bool {
	return c.IsStripe || c.IsPaypal || c.IsManual || c.IsMercadoPago || c.IsMercadoCredito
}
