package settings

import "time"

// Import defaults.
const (
	// DefaultModule is the foreign system namespace used when callers omit one.
	DefaultModule = "bank-hub"
	// ImportedUserPassword marks users created by import without a local credential.
	ImportedUserPassword = "imported_user"
	// DefaultDuplicateWindow is the half-width of the transaction duplicate date window.
	DefaultDuplicateWindow = 24 * time.Hour
	// DefaultCandidateLimit caps heuristic duplicate queries.
	DefaultCandidateLimit = 5
	// DefaultExternalIDLimit caps diagnostic external id listings.
	DefaultExternalIDLimit = 100
	// DefaultSyncInterval is the bank-hub export pull interval.
	DefaultSyncInterval = 15 * time.Minute
)

// Rate limit defaults for the import routes.
const (
	// DefaultRateLimit is the fallback rate limit per second (0 means unlimited).
	DefaultRateLimit = 0
	// DefaultRateLimitRedisPrefix is the fallback Redis key prefix.
	DefaultRateLimitRedisPrefix = "hub:rl"
)
