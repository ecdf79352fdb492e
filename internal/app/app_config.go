package app

import (
	"github.com/mkrupp/homecase-catalog/internal/svc/authsvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/catalogsvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/disclosuresvc"
	"github.com/mkrupp/homecase-catalog/internal/svc/postersvc"
)

// AppConfig groups the configuration of the services composed by App.
type AppConfig struct {
	Auth       authsvc.AuthConfig             `envPrefix:"AUTH_"       toml:"auth"`
	Catalog    catalogsvc.CatalogConfig       `envPrefix:"CATALOG_"    toml:"catalog"`
	Disclosure disclosuresvc.DisclosureConfig `envPrefix:"DISCLOSURE_" toml:"disclosure"`
	Poster     postersvc.PosterConfig         `envPrefix:"POSTER_"     toml:"poster"`
}
