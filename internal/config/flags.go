package config

import (
	"flag"
	"strings"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-base-url remote endpoint base URL
//	-request-timeout outbound request timeout (e.g., "30s", "1m")
//	-config-dir base state directory
//	-db-path metadata database path
//	-compression-level archive gzip level (1-9)
//	-sync-roots comma-separated allow-list of config dirs
//	-replay-window maximum envelope age (e.g., "1h")
//	-sync-interval auto-sync interval (e.g., "1h")
//	-device-name human label for this installation
//	-c/-config json file path with configs
//
// Flag parsing stops at the first non-flag argument, so CLI verbs and their
// arguments remain available via flag.Args().
func ParseFlags() *StructuredConfig {
	var baseURL string
	var requestTimeout time.Duration
	var configDir string
	var dbPath string
	var compressionLevel int
	var syncRoots string
	var replayWindow time.Duration
	var syncInterval time.Duration
	var deviceName string
	var jsonConfigPath string

	flag.StringVar(&baseURL, "base-url", "", "Remote endpoint base URL")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&configDir, "config-dir", "", "Base state directory")
	flag.StringVar(&dbPath, "db-path", "", "Metadata database path")
	flag.IntVar(&compressionLevel, "compression-level", 0, "Archive gzip level (1-9)")
	flag.StringVar(&syncRoots, "sync-roots", "", "Comma-separated config dir allow-list")
	flag.DurationVar(&replayWindow, "replay-window", 0, "Maximum envelope age (e.g., 1h)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Auto-sync interval (e.g., 1h)")
	flag.StringVar(&deviceName, "device-name", "", "Device label")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	var roots []string
	if syncRoots != "" {
		for _, r := range strings.Split(syncRoots, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roots = append(roots, r)
			}
		}
	}

	return &StructuredConfig{
		App: App{
			DeviceName: deviceName,
		},
		Storage: Storage{
			ConfigDir: configDir,
			DBPath:    dbPath,
		},
		Remote: Remote{
			BaseURL:        baseURL,
			RequestTimeout: requestTimeout,
		},
		Archive: Archive{
			CompressionLevel: compressionLevel,
			SyncRoots:        roots,
		},
		Crypto: Crypto{
			ReplayWindow: replayWindow,
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
