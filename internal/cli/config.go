package cli

import (
	"github.com/mkrupp/homecase-catalog/internal/app"
	"github.com/mkrupp/homecase-catalog/internal/infra/config"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
)

const (
	appName = "homecase"
	cmdName = "catalog"

	// ConfigNamespace prefixes every environment variable, e.g. HOMECASE_CATALOG_STORE_DRIVER.
	ConfigNamespace = "HOMECASE_CATALOG"
)

// Config is the complete client configuration. Values come from defaults,
// then the optional TOML file, then the environment.
type Config struct {
	config.EnvConfig
	app.AppConfig

	Log   logging.LoggerConfig  `envPrefix:"LOG_"   toml:"log"`
	Store slot.RepositoryConfig `envPrefix:"STORE_" toml:"store"`
}
