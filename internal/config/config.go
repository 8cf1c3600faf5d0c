// Package config loads propcord settings from an optional TOML file and
// PROPCORD_* environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string // PROPCORD_DATABASE_URL (required by serve)
	GRPCAddr    string // PROPCORD_GRPC_ADDR (default ":9090")
	HTTPAddr    string // PROPCORD_HTTP_ADDR (default ":8080")
	NATSURL     string // PROPCORD_NATS_URL (optional, empty = no events)
	AuthToken   string // PROPCORD_AUTH_TOKEN (optional, empty = auth disabled)

	// Notion settings
	NotionToken      string // PROPCORD_NOTION_TOKEN
	NotionBaseURL    string // PROPCORD_NOTION_BASE_URL (default https://api.notion.com)
	MemberDatabaseID string // PROPCORD_MEMBER_DATABASE_ID (enables the Notion resolver)
	MemberProperty   string // PROPCORD_MEMBER_PROPERTY (default "ユーザー")
	HandleProperty   string // PROPCORD_HANDLE_PROPERTY (default "Discord ID")

	// Sync settings
	SyncInterval   time.Duration // PROPCORD_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // PROPCORD_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // PROPCORD_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // PROPCORD_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // PROPCORD_SYNC_S3_KEY (default "propcord/mappings.jsonl")
	SyncGitRepo    string        // PROPCORD_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // PROPCORD_SYNC_GIT_FILE (default "mappings.jsonl")
	SyncGitBranch  string        // PROPCORD_SYNC_GIT_BRANCH (default "main")
}

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	DatabaseURL string `toml:"database_url"`
	GRPCAddr    string `toml:"grpc_addr"`
	HTTPAddr    string `toml:"http_addr"`
	NATSURL     string `toml:"nats_url"`
	AuthToken   string `toml:"auth_token"`

	Notion struct {
		Token            string `toml:"token"`
		BaseURL          string `toml:"base_url"`
		MemberDatabaseID string `toml:"member_database_id"`
		MemberProperty   string `toml:"member_property"`
		HandleProperty   string `toml:"handle_property"`
	} `toml:"notion"`

	Sync struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
		GitRepo    string `toml:"git_repo"`
		GitFile    string `toml:"git_file"`
		GitBranch  string `toml:"git_branch"`
	} `toml:"sync"`
}

// Load reads the TOML file named by PROPCORD_CONFIG, if any, then applies
// environment overrides and defaults.
func Load() (*Config, error) {
	var f fileConfig
	if path := os.Getenv("PROPCORD_CONFIG"); path != "" {
		md, err := toml.DecodeFile(path, &f)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
		}
	}

	c := &Config{
		DatabaseURL: envOrDefault("PROPCORD_DATABASE_URL", f.DatabaseURL),
		GRPCAddr:    envOrDefault("PROPCORD_GRPC_ADDR", orDefault(f.GRPCAddr, ":9090")),
		HTTPAddr:    envOrDefault("PROPCORD_HTTP_ADDR", orDefault(f.HTTPAddr, ":8080")),
		NATSURL:     envOrDefault("PROPCORD_NATS_URL", f.NATSURL),
		AuthToken:   envOrDefault("PROPCORD_AUTH_TOKEN", f.AuthToken),

		NotionToken:      envOrDefault("PROPCORD_NOTION_TOKEN", f.Notion.Token),
		NotionBaseURL:    envOrDefault("PROPCORD_NOTION_BASE_URL", orDefault(f.Notion.BaseURL, "https://api.notion.com")),
		MemberDatabaseID: envOrDefault("PROPCORD_MEMBER_DATABASE_ID", f.Notion.MemberDatabaseID),
		MemberProperty:   envOrDefault("PROPCORD_MEMBER_PROPERTY", orDefault(f.Notion.MemberProperty, "ユーザー")),
		HandleProperty:   envOrDefault("PROPCORD_HANDLE_PROPERTY", orDefault(f.Notion.HandleProperty, "Discord ID")),

		SyncS3Bucket:   envOrDefault("PROPCORD_SYNC_S3_BUCKET", f.Sync.S3Bucket),
		SyncS3Endpoint: envOrDefault("PROPCORD_SYNC_S3_ENDPOINT", f.Sync.S3Endpoint),
		SyncS3Region:   envOrDefault("PROPCORD_SYNC_S3_REGION", orDefault(f.Sync.S3Region, "us-east-1")),
		SyncS3Key:      envOrDefault("PROPCORD_SYNC_S3_KEY", orDefault(f.Sync.S3Key, "propcord/mappings.jsonl")),
		SyncGitRepo:    envOrDefault("PROPCORD_SYNC_GIT_REPO", f.Sync.GitRepo),
		SyncGitFile:    envOrDefault("PROPCORD_SYNC_GIT_FILE", orDefault(f.Sync.GitFile, "mappings.jsonl")),
		SyncGitBranch:  envOrDefault("PROPCORD_SYNC_GIT_BRANCH", orDefault(f.Sync.GitBranch, "main")),
	}

	intervalStr := envOrDefault("PROPCORD_SYNC_INTERVAL", orDefault(f.Sync.Interval, "3m"))
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("PROPCORD_SYNC_INTERVAL: %w", err)
	}
	c.SyncInterval = d

	return c, nil
}

// ValidateServe reports settings missing for running the server.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("PROPCORD_DATABASE_URL is required"))
	}
	if c.MemberDatabaseID != "" && c.NotionToken == "" {
		errs = append(errs, errors.New("PROPCORD_NOTION_TOKEN is required when PROPCORD_MEMBER_DATABASE_ID is set"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
