package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	scope        string
	storageDir   string
	sessionState bool
}

// WithScope forces a specific scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}

// WithStorageDir pins the client to an explicit storage directory instead of
// resolving one from the environment.
func WithStorageDir(dir string) Option {
	return func(c *clientConfig) {
		c.storageDir = dir
	}
}

// WithSessionState restores the saved session pointers on open and saves them
// on Close, sharing the current context and branch with the CLI.
func WithSessionState() Option {
	return func(c *clientConfig) {
		c.sessionState = true
	}
}
