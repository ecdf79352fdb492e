package catalogsvc

// CatalogConfig holds configuration parameters for the catalog service.
type CatalogConfig struct {
	// StrictLoad makes loading fail on stored entries with a blank title or a duplicate id
	// instead of skipping them.
	StrictLoad bool `env:"STRICT_LOAD" default:"false" toml:"strict_load"`
}
