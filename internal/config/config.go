// Package config loads the allocator's tuning constants (spec.md §6) from
// YAML and from environment variable overrides, on top of compiled-in
// defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rljacobson/mod2-gc/internal/nodealloc"
	"github.com/rljacobson/mod2-gc/internal/storage"
	"github.com/rljacobson/mod2-gc/internal/xsync"
)

// Tuning mirrors the tuning-constants table in spec.md §6. Every field has
// a compiled-in reference default; the zero value of Tuning is not
// meaningful on its own -- use Default() or Load.
type Tuning struct {
	ArenaNodes       int     `yaml:"arena_nodes"`
	ReserveSlots     int     `yaml:"reserve_slots"`
	LowerBound       int64   `yaml:"lower_bound"`
	UpperBound       int64   `yaml:"upper_bound"`
	SmallModelSlop   float64 `yaml:"small_model_slop"`
	BigModelSlop     float64 `yaml:"big_model_slop"`
	MinBucketSize    int     `yaml:"min_bucket_size"`
	BucketMultiplier int     `yaml:"bucket_multiplier"`
	InitialTarget    int     `yaml:"initial_target"`
	TargetMultiplier int     `yaml:"target_multiplier"`
}

// Default returns the reference tuning values from spec.md §6.
//
// ArenaNodes and ReserveSlots are carried for visibility only and are
// compiled constants in
// internal/arena; unlike the other fields they cannot actually be
// overridden at runtime, since arena.NodeArena's slot array is sized by a
// Go array length, not a runtime value.
func Default() Tuning {
	return Tuning{
		ArenaNodes:       5460,
		ReserveSlots:     256,
		LowerBound:       nodealloc.DefaultLowerBound,
		UpperBound:       nodealloc.DefaultUpperBound,
		SmallModelSlop:   nodealloc.DefaultSmallModelSlop,
		BigModelSlop:     nodealloc.DefaultBigModelSlop,
		MinBucketSize:    storage.DefaultMinBucketSize,
		BucketMultiplier: storage.DefaultBucketMultiplier,
		InitialTarget:    storage.DefaultInitialTarget,
		TargetMultiplier: storage.DefaultTargetMultiplier,
	}
}

// loadCache memoizes Load by path: multiple Heaps constructed from the
// same tuning file (e.g. one per test fixture) don't each re-read and
// re-parse it.
var loadCache xsync.Map[string, Tuning]

// Load reads a YAML document at path, overlaying it on Default(). Repeated
// calls with the same path return the cached result instead of re-reading
// the file -- tuning files are read once at startup and never rewritten
// mid-process, so this subsystem doesn't need a cache-invalidation path.
func Load(path string) (Tuning, error) {
	if t, ok := loadCache.Load(path); ok {
		return t, nil
	}

	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	loadCache.Store(path, t)
	return t, nil
}

// envOverrides lists the MOD2GC_* environment variables FromEnv consults,
// and how to apply each to a Tuning.
var envOverrides = map[string]func(t *Tuning, v string) error{
	"MOD2GC_LOWER_BOUND":       func(t *Tuning, v string) error { return setInt64(&t.LowerBound, v) },
	"MOD2GC_UPPER_BOUND":       func(t *Tuning, v string) error { return setInt64(&t.UpperBound, v) },
	"MOD2GC_SMALL_MODEL_SLOP":  func(t *Tuning, v string) error { return setFloat(&t.SmallModelSlop, v) },
	"MOD2GC_BIG_MODEL_SLOP":    func(t *Tuning, v string) error { return setFloat(&t.BigModelSlop, v) },
	"MOD2GC_MIN_BUCKET_SIZE":   func(t *Tuning, v string) error { return setInt(&t.MinBucketSize, v) },
	"MOD2GC_BUCKET_MULTIPLIER": func(t *Tuning, v string) error { return setInt(&t.BucketMultiplier, v) },
	"MOD2GC_INITIAL_TARGET":    func(t *Tuning, v string) error { return setInt(&t.InitialTarget, v) },
	"MOD2GC_TARGET_MULTIPLIER": func(t *Tuning, v string) error { return setInt(&t.TargetMultiplier, v) },
}

// FromEnv overlays MOD2GC_*-prefixed environment variables on top of base,
// satisfying spec.md §6's "may be environment-overridable."
func FromEnv(base Tuning) (Tuning, error) {
	for name, apply := range envOverrides {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if err := apply(&base, v); err != nil {
			return Tuning{}, fmt.Errorf("config: %s=%q: %w", name, v, err)
		}
	}
	return base, nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

// SlopTuning projects the slop-related fields into nodealloc.SlopTuning.
func (t Tuning) SlopTuning() nodealloc.SlopTuning {
	return nodealloc.SlopTuning{
		LowerBound:     t.LowerBound,
		UpperBound:     t.UpperBound,
		SmallModelSlop: t.SmallModelSlop,
		BigModelSlop:   t.BigModelSlop,
	}
}

// StorageTuning projects the bucket-sizing fields into storage.Tuning.
func (t Tuning) StorageTuning() storage.Tuning {
	return storage.Tuning{
		MinBucketSize:    t.MinBucketSize,
		BucketMultiplier: t.BucketMultiplier,
		InitialTarget:    t.InitialTarget,
		TargetMultiplier: t.TargetMultiplier,
	}
}
