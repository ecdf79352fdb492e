package disclosuresvc

// DisclosureConfig holds configuration parameters for incremental disclosure.
type DisclosureConfig struct {
	// InitialCount is how many entries are visible before any signal
	InitialCount int `env:"INITIAL_COUNT" default:"5" toml:"initial_count"`

	// Step is how many more entries each visibility signal reveals
	Step int `env:"STEP" default:"5" toml:"step"`

	// ResetOnQueryChange shrinks the window back to InitialCount when the search query changes
	ResetOnQueryChange bool `env:"RESET_ON_QUERY_CHANGE" default:"false" toml:"reset_on_query_change"`
}
