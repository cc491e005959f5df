// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD /route/template" to the required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"GET /healthz": SecurityPublic,

	// Rentals - Access Protected
	"POST /api/rentals":                      SecurityAccess,
	"GET /api/rentals/my-rentals":            SecurityAccess,
	"GET /api/rentals/{id}":                  SecurityAccess,
	"PUT /api/rentals/{id}/decide":           SecurityAccess,
	"PUT /api/rentals/{id}/schedule":         SecurityAccess,
	"POST /api/rentals/{id}/verify-exchange": SecurityAccess,
	"PUT /api/rentals/{id}/cancel":           SecurityAccess,
	"POST /api/rentals/{id}/messages":        SecurityAccess,
	"GET /api/rentals/{id}/events":           SecurityAccess,

	// Items - Access Protected
	"POST /api/items":     SecurityAccess,
	"GET /api/items/{id}": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
