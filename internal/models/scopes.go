package models

// Scope constants define all valid scopes in the system
const (
	// History scopes
	ScopeHistoryView   = "history:view"
	ScopeHistoryRecord = "history:record"
	ScopeHistoryDelete = "history:delete"

	// Wildcard scope - grants all permissions
	ScopeAll = "*"
)

// AllValidScopes is the whitelist of all allowed scopes
var AllValidScopes = map[string]bool{
	ScopeHistoryView:   true,
	ScopeHistoryRecord: true,
	ScopeHistoryDelete: true,
	ScopeAll:           true,
}

// IsValidScope checks if a scope exists in the whitelist
func IsValidScope(scope string) bool {
	return AllValidScopes[scope]
}

// HasScope checks if a scopes array contains a required scope
// Handles wildcard "*" for super-admin access
func HasScope(scopes []string, required string) bool {
	for _, scope := range scopes {
		// Wildcard grants all scopes
		if scope == ScopeAll {
			return true
		}
		if scope == required {
			return true
		}
	}
	return false
}
