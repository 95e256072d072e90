package ledger

// Config is a configuration for the ledger application
type Config struct {
	HTTPAddr string
	// RepoBackend selects "pg" or "mem". The memory backend is for tests and
	// local development only.
	RepoBackend string
	// DSN is the Postgres connection string, required for the pg backend.
	DSN string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    "localhost:9090",
		RepoBackend: "mem",
	}
}
