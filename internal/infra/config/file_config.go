package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfigFile is returned when the config file is not valid TOML for the config struct.
var ErrInvalidConfigFile = errors.New("invalid config file")

// ParseFile loads configuration in three layers: `default` tags first, then the
// TOML file at path, then environment variables (see Parse). Keys in the file follow
// the `toml` tags of the struct; unknown keys are rejected. An empty path skips the
// file layer.
func ParseFile(ctx context.Context, cfg any, namespace, path string) error {
	if path == "" {
		return Parse(ctx, cfg, namespace)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	return load(cfg, namespace, data)
}

func decodeFile(data []byte, cfg any) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return errors.Join(ErrInvalidConfigFile, fmt.Errorf("unknown keys:\n%s", strictErr.String()))
		}

		return errors.Join(ErrInvalidConfigFile, fmt.Errorf("decode toml: %w", err))
	}

	return nil
}
