package contextkeys

// ContextKey is a dedicated type so context values set by middleware
// cannot collide with keys from other packages.
type ContextKey string

const (
	// DBContextKey holds the *gorm.DB (pool or per-test transaction) for the request.
	DBContextKey ContextKey = "db"
)
