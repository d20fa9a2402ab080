package driven

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type
// conversion. Core code receives already-resolved values; only the CLI
// layer reads the store directly.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, "" when absent or mistyped.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when absent or mistyped.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when absent or mistyped.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice, nil when absent.
	GetStringSlice(key string) []string

	// GetStringMap retrieves the string entries nested under a table
	// key, nil when the table is absent or empty.
	GetStringMap(key string) map[string]string

	// Set stores a value. The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
