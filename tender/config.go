package tender

// Config is a configuration for the split-tender application
type Config struct {
	HTTPAddr string
	// LedgerURL is the base URL of the ledger service.
	LedgerURL string
	// ProcessorURL and ProcessorAPIKey configure the card gateway client.
	ProcessorURL    string
	ProcessorAPIKey string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: "localhost:8080",
	}
}
