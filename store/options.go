package store

// DefaultMaxIDs is the default number of identifiers, 0..126. The
// reserved all-ones identifier is never valid, so the hard ceiling for
// MaxIDs is 255.
const DefaultMaxIDs = 127

// Config holds the store configuration assembled from Options.
type Config struct {
	// MaxIDs is the number of valid identifiers (ids are 0..MaxIDs-1).
	MaxIDs uint16

	// Logger receives recovery and swap diagnostics (optional).
	Logger Logger
}

func defaultConfig() Config {
	return Config{
		MaxIDs: DefaultMaxIDs,
	}
}

// Option is a functional option for Open.
type Option func(*Config)

// WithMaxIDs sets the number of valid identifiers, 1..255. The page
// geometry passed to Open must leave room for at least 2*MaxIDs words
// per page.
//
// Example:
//
//	st, err := store.Open(dev, 0, 2048, 1024, store.WithMaxIDs(64))
func WithMaxIDs(n uint16) Option {
	return func(c *Config) {
		c.MaxIDs = n
	}
}

// WithLogger sets a logger for store operations.
//
// Example:
//
//	st, err := store.Open(dev, 0, 2048, 1024, store.WithLogger(myLogger))
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// Logger is an optional logging interface. It allows integration with
// any logging framework.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (StdLogger) Debug(msg string, kv ...interface{}) { log.Println("DEBUG:", msg, kv) }
//	func (StdLogger) Info(msg string, kv ...interface{})  { log.Println("INFO:", msg, kv) }
//	func (StdLogger) Error(msg string, kv ...interface{}) { log.Println("ERROR:", msg, kv) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
