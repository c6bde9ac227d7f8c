package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		Version    string `json:"version"`
		DeviceName string `json:"device_name"`
	} `json:"app,omitempty"`

	Storage struct {
		ConfigDir string `json:"config_dir"`
		DBPath    string `json:"db_path"`
	} `json:"storage,omitempty"`

	Remote struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"remote,omitempty"`

	Archive struct {
		CompressionLevel int      `json:"compression_level"`
		SyncRoots        []string `json:"sync_roots"`
	} `json:"archive,omitempty"`

	Crypto struct {
		ReplayWindow  Duration `json:"replay_window"`
		KDFIterations int      `json:"kdf_iterations"`
	} `json:"crypto,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version:    jsonCfg.App.Version,
			DeviceName: jsonCfg.App.DeviceName,
		},
		Storage: Storage{
			ConfigDir: jsonCfg.Storage.ConfigDir,
			DBPath:    jsonCfg.Storage.DBPath,
		},
		Remote: Remote{
			BaseURL:        jsonCfg.Remote.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
		},
		Archive: Archive{
			CompressionLevel: jsonCfg.Archive.CompressionLevel,
			SyncRoots:        jsonCfg.Archive.SyncRoots,
		},
		Crypto: Crypto{
			ReplayWindow:  time.Duration(jsonCfg.Crypto.ReplayWindow),
			KDFIterations: jsonCfg.Crypto.KDFIterations,
		},
		Workers: Workers{
			SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
