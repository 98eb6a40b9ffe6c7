package handlers

// AppHandlers groups the constructed handlers for route registration.
type AppHandlers struct {
	Auth           *AuthHandler
	Payment        *PaymentHandler
	Callback       *CallbackHandler
	SecurityEvents *SecurityEventHandler
}
