// Package config reads the sizing of the virtual memory manager from the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the parameters used to build a manager.
type Config struct {
	NumBuckets  int
	NumFrames   int
	MaxEntries  int
	TLBSlots    int
	HeapLimit   uint64
	StackPages  uint64
	MonitorPort int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		NumBuckets:  1024,
		NumFrames:   4096,
		MaxEntries:  0,
		TLBSlots:    64,
		HeapLimit:   0,
		StackPages:  16,
		MonitorPort: 0,
	}
}

// Load reads the given env files into the environment and builds a Config
// from it. Variables already set in the environment win over the files.
// Without any file, Load reads ".env" if it exists.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, err
	}

	return FromEnv()
}

// FromEnv builds a Config from the environment variables only.
func FromEnv() (Config, error) {
	c := Default()

	ints := []struct {
		name string
		dst  *int
	}{
		{"VMKERN_BUCKETS", &c.NumBuckets},
		{"VMKERN_FRAMES", &c.NumFrames},
		{"VMKERN_MAX_ENTRIES", &c.MaxEntries},
		{"VMKERN_TLB_SLOTS", &c.TLBSlots},
		{"VMKERN_MONITOR_PORT", &c.MonitorPort},
	}

	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}

		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", v.name, err)
		}

		*v.dst = n
	}

	uints := []struct {
		name string
		dst  *uint64
	}{
		{"VMKERN_HEAP_LIMIT", &c.HeapLimit},
		{"VMKERN_STACK_PAGES", &c.StackPages},
	}

	for _, v := range uints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}

		n, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", v.name, err)
		}

		*v.dst = n
	}

	return c, c.Validate()
}

// Validate reports values that no manager can be built with.
func (c Config) Validate() error {
	switch {
	case c.NumBuckets <= 0:
		return fmt.Errorf("VMKERN_BUCKETS must be positive, got %d", c.NumBuckets)
	case c.NumFrames <= 0:
		return fmt.Errorf("VMKERN_FRAMES must be positive, got %d", c.NumFrames)
	case c.MaxEntries < 0:
		return fmt.Errorf("VMKERN_MAX_ENTRIES must not be negative, got %d",
			c.MaxEntries)
	case c.TLBSlots <= 0:
		return fmt.Errorf("VMKERN_TLB_SLOTS must be positive, got %d", c.TLBSlots)
	case c.StackPages == 0:
		return errors.New("VMKERN_STACK_PAGES must be positive")
	}

	return nil
}
