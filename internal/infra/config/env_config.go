package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required value is set neither in the environment,
	// nor in the config file, nor by a default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse a value
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

type fieldVisitor func(prefix string, field reflect.StructField, value reflect.Value) error

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env` tags to specify variable names.
// Nested structs add their `envPrefix` tag to the names of their fields.
// The namespace parameter is used as a prefix for all environment variables; the
// most specific namespace prefix wins ("APP_SVC_X" over "APP_X" over "X").
// Supports string, int and bool fields. Fields without an `env` tag are left untouched.
// Returns an error if parsing fails or required variables are missing.
func Parse(ctx context.Context, cfg any, namespace string) error {
	return load(cfg, namespace, nil)
}

func load(cfg any, namespace string, file []byte) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	root := reflect.ValueOf(cfg).Elem()

	if err := walk("", root, applyDefault); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}

	if file != nil {
		if err := decodeFile(file, cfg); err != nil {
			return err
		}
	}

	if err := walk("", root, applyEnv(namespace)); err != nil {
		return fmt.Errorf("parse field: %w", err)
	}

	return nil
}

func walk(prefix string, v reflect.Value, visit fieldVisitor) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		structField := v.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := walk(prefix+field.Tag.Get("envPrefix"), structField, visit); err != nil {
				return err
			}

			continue
		}

		if field.Tag.Get("env") == "" {
			continue
		}

		if err := visit(prefix, field, structField); err != nil {
			return err
		}
	}

	return nil
}

func applyDefault(_ string, field reflect.StructField, value reflect.Value) error {
	defaultValue, ok := field.Tag.Lookup("default")
	if !ok {
		return nil
	}

	return setValue(field, value, defaultValue)
}

func applyEnv(namespace string) fieldVisitor {
	return func(prefix string, field reflect.StructField, value reflect.Value) error {
		envTag := field.Tag.Get("env")

		if envValue, ok := lookupEnv(namespace, prefix+envTag); ok {
			return setValue(field, value, envValue)
		}

		if _, hasDefault := field.Tag.Lookup("default"); !hasDefault && value.IsZero() {
			return fmt.Errorf("%w: %s", ErrVarNotSet, prefix+envTag)
		}

		return nil
	}
}

// lookupEnv tries NAMESPACE_PARTS_NAME from the longest namespace prefix down to the bare name.
func lookupEnv(namespace, name string) (string, bool) {
	nsParts := strings.Split(namespace, "_")

	for i := len(nsParts); i > 0; i-- {
		envName := strings.Join(nsParts[:i], "_")

		if envName != "" {
			envName += "_"
		}

		if envValue, ok := os.LookupEnv(envName + name); ok {
			return envValue, true
		}
	}

	return "", false
}

func setValue(field reflect.StructField, value reflect.Value, raw string) error {
	envTag := field.Tag.Get("env")

	//nolint:exhaustive
	switch field.Type.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetInt(intValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetBool(boolValue)
	default:
		return fmt.Errorf("%w: %s (%v)", ErrUnsupportedVarType, envTag, field.Type.Kind())
	}

	return nil
}
