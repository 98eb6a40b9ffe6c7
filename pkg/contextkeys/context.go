package contextkeys

// Custom key type to avoid collisions with other packages.
type contextKey string

// RequestIDKey is the key under which the request id travels in a context.
const RequestIDKey = contextKey("request_id")

// ClientIPKey is the key under which the resolved client IP travels in a context.
const ClientIPKey = contextKey("client_ip")
