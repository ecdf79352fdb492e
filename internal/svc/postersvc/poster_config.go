package postersvc

// PosterConfig holds configuration parameters for the poster service.
type PosterConfig struct {
	// Width of the rendered thumbnail in pixels
	Width int `env:"WIDTH" default:"64" toml:"width"`

	// Height of the rendered thumbnail in pixels
	Height int `env:"HEIGHT" default:"64" toml:"height"`

	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom" toml:"interpolator"`

	// MaxSize is the maximum accepted size of a poster source in bytes.
	// Default is 20MB.
	MaxSize int64 `env:"MAX_SIZE" default:"20971520" toml:"max_size"`

	// Cache keeps rendered thumbnails in the durable store
	Cache bool `env:"CACHE" default:"true" toml:"cache"`
}
