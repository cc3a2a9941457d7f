package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// Env reads typed settings from the environment. Malformed values fall back
// to the default and are collected, so one Err call reports every bad key.
type Env struct {
	errs []error
}

func (e *Env) String(key, def string) string {
	return GetEnv(key, def)
}

func (e *Env) Int(key string, def int) int {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *Env) Uint64(key string, def uint64) uint64 {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *Env) Float(key string, def float64) float64 {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *Env) Bool(key string, def bool) bool {
	raw, ok := e.lookup(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

// Duration reads a whole number of units, e.g. SERVER_READ_TIMEOUT_SECONDS.
func (e *Env) Duration(key string, def int, unit time.Duration) time.Duration {
	return time.Duration(e.Int(key, def)) * unit
}

// List splits a comma separated value, trimming and lowercasing entries and
// dropping empty ones.
func (e *Env) List(key string) []string {
	var out []string
	for _, item := range strings.Split(GetEnv(key, ""), ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Set reports whether key holds a non-empty value.
func (e *Env) Set(key string) bool {
	_, ok := e.lookup(key)
	return ok
}

func (e *Env) Err() error {
	return errors.Join(e.errs...)
}

func (e *Env) lookup(key string) (string, bool) {
	raw := strings.TrimSpace(GetEnv(key, ""))
	return raw, raw != ""
}

func (e *Env) fail(key string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
}
