package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// ValidateConfig performs comprehensive validation of gateway configuration.
// It returns aggregated errors, allowing the caller to print all issues at
// once. ResolveKeys must run first so file-sourced keys are included.
func (c *Config) ValidateConfig() []error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("listen_addr: must not be empty"))
	} else if err := validateListenAddr(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr: %v", err))
	}

	// An empty authorized set means every request would be rejected; refuse
	// to start rather than serve a dead gateway.
	if len(c.AppKeys) == 0 {
		errs = append(errs, fmt.Errorf("app_keys: authorized credential set must not be empty"))
	}
	seen := make(map[string]bool, len(c.AppKeys))
	for i, key := range c.AppKeys {
		path := fmt.Sprintf("app_keys[%d]", i)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s: must not be empty", path))
			continue
		}
		if key != strings.TrimSpace(key) {
			errs = append(errs, fmt.Errorf("%s: must not have leading or trailing whitespace", path))
		}
		for _, r := range key {
			if !unicode.IsPrint(r) {
				errs = append(errs, fmt.Errorf("%s: must contain only printable characters", path))
				break
			}
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate key", path))
		}
		seen[key] = true
	}

	switch c.Database.Driver {
	case "rqlite":
		if c.Database.DSN != "" && !strings.HasPrefix(c.Database.DSN, "http://") && !strings.HasPrefix(c.Database.DSN, "https://") {
			errs = append(errs, fmt.Errorf("database.dsn: rqlite driver expects an http(s) URL, got %q", c.Database.DSN))
		}
	case "sqlite3":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn: must not be empty for sqlite3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver: must be \"rqlite\" or \"sqlite3\", got %q", c.Database.Driver))
	}

	for i, addr := range c.Cache.Servers {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("cache.servers[%d]: invalid host:port %q: %v", i, addr, err))
		}
	}
	if c.Cache.Timeout < 0 {
		errs = append(errs, fmt.Errorf("cache.timeout: must not be negative"))
	}

	if c.Events.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("events.buffer_size: must not be negative"))
	}

	return errs
}

// ResolveKeys appends keys read from AppKeysFile (one per line, blank lines
// and '#' comments skipped) to the inline AppKeys list.
func (c *Config) ResolveKeys() error {
	if c.AppKeysFile == "" {
		return nil
	}

	f, err := os.Open(c.AppKeysFile)
	if err != nil {
		return fmt.Errorf("app_keys_file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.AppKeys = append(c.AppKeys, line)
	}
	return scanner.Err()
}

// validateListenAddr accepts ":port" or "host:port" with a sane port range.
func validateListenAddr(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address: %v; expected [host]:port", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q", portStr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range; must be between 1 and 65535", port)
	}
	if host != "" {
		if ip := net.ParseIP(host); ip == nil && strings.ContainsAny(host, " /") {
			return fmt.Errorf("invalid host %q", host)
		}
	}
	return nil
}
