package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// globalCache holds one parsed value per configuration type so each
// type is read from the environment exactly once per process.
var globalCache = struct {
	mu     sync.Mutex
	values map[string]any
}{values: make(map[string]any)}

var defaultEnvLoaded sync.Once

// Load populates v from the environment. The first call for any
// process also reads the default .env file if one exists. Each
// configuration type is parsed once and cached: later calls for the
// same type return the cached value even if the environment changed
// in between (see ForceReloadConfig to bypass the cache).
//
//	type DatabaseConfig struct {
//		Host string `env:"DB_HOST" envDefault:"localhost"`
//		Port int    `env:"DB_PORT" envDefault:"5432"`
//	}
//
//	var cfg DatabaseConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// A missing .env file is fine; plain environment variables
		// carry the configuration then.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	typeName := getTypeName[T]()

	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()

	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Cache a copy so later mutations of v do not leak into the cache.
	globalCache.values[typeName] = *v
	return nil
}

// MustLoad works like Load but panics when loading fails. Use it for
// configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// getTypeName returns a stable cache key for the type T.
func getTypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
