package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into the provided configuration struct
// based on `env` field tags. Each configuration type is parsed once per
// process; subsequent calls return the cached value, so every component can
// load its own Config without re-reading the environment.
//
// A .env file in the working directory is loaded once, if present, before
// the first parse.
//
//	type SchedulerConfig struct {
//		TickInterval time.Duration `env:"SCHEDULER_TICK_INTERVAL" envDefault:"1m"`
//		LockTTL      time.Duration `env:"SCHEDULER_LOCK_TTL" envDefault:"55s"`
//	}
//
//	var cfg SchedulerConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; ignore a missing one.
		_ = godotenv.Load()
	})

	name := typeName[T]()

	cacheMu.RLock()
	cached, ok := cache[name]
	cacheMu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	// Concurrent loads of the same type parse identical values, so the last
	// write winning is harmless.
	cache[name] = *v
	cacheMu.Unlock()

	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
