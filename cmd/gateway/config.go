package main

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/config"
	"github.com/matchid-dev/appgate/pkg/logging"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

// parseConfig loads the YAML config file when given, then applies flag and
// environment overrides. Priority: flags > env > file > defaults.
func parseConfig(logger *logging.ColoredLogger) (*config.Config, error) {
	configPath := flag.String("config", getEnvDefault("APPGATE_CONFIG", ""), "Path to YAML config file")
	addr := flag.String("addr", getEnvDefault("APPGATE_ADDR", ""), "HTTP listen address (e.g., :6644)")
	keys := flag.String("app-keys", getEnvDefault("APPGATE_APP_KEYS", ""), "Comma-separated authorized app keys")
	keysFile := flag.String("app-keys-file", getEnvDefault("APPGATE_APP_KEYS_FILE", ""), "File with one authorized app key per line")
	dbDriver := flag.String("db-driver", getEnvDefault("APPGATE_DB_DRIVER", ""), "Metadata store driver: rqlite or sqlite3")
	dbDSN := flag.String("db-dsn", getEnvDefault("APPGATE_DB_DSN", ""), "Metadata store DSN")
	cacheServers := flag.String("cache-servers", getEnvDefault("APPGATE_CACHE_SERVERS", ""), "Comma-separated Olric server addresses")
	logFile := flag.String("log-file", getEnvDefault("APPGATE_LOG_FILE", ""), "Log to file instead of stdout")
	noColor := flag.Bool("no-color", getEnvBoolDefault("APPGATE_NO_COLOR", false), "Disable ANSI colors in log output")

	// Do not call flag.Parse() elsewhere to avoid double-parsing
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if k := strings.TrimSpace(*keys); k != "" {
		for _, part := range strings.Split(k, ",") {
			if val := strings.TrimSpace(part); val != "" {
				cfg.AppKeys = append(cfg.AppKeys, val)
			}
		}
	}
	if *keysFile != "" {
		cfg.AppKeysFile = *keysFile
	}
	if *dbDriver != "" {
		cfg.Database.Driver = *dbDriver
	}
	if *dbDSN != "" {
		cfg.Database.DSN = *dbDSN
	}
	if s := strings.TrimSpace(*cacheServers); s != "" {
		cfg.Cache.Servers = nil
		for _, part := range strings.Split(s, ",") {
			if val := strings.TrimSpace(part); val != "" {
				cfg.Cache.Servers = append(cfg.Cache.Servers, val)
			}
		}
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *noColor {
		cfg.NoColor = true
	}

	logger.ComponentInfo(logging.ComponentConfig, "loaded gateway configuration",
		zap.String("addr", cfg.ListenAddr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("cache_servers", cfg.Cache.Servers),
		zap.Int("inline_keys", len(cfg.AppKeys)),
	)

	return cfg, nil
}
