package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type S3 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Google struct {
	CredentialsFile string
	TokenFile       string
}

type Config struct {
	AirtablePAT     string
	AirtableBaseURL string
	BaseDir         string
	SharedDir       string
	WindowsShared   string
	LinuxShared     string
	CreatorsFile    string
	SyncSchedule    string
	Google          Google
	S3              S3
}

// Creator holds the Airtable coordinates for one model.
type Creator struct {
	BaseID                string `json:"base_id"`
	TableID               string `json:"table_id"`
	ViewID                string `json:"view_id"`
	ActiveAccountsTableID string `json:"active_accounts_table_id"`
}

type Creators struct {
	Creators map[string]Creator `json:"creators"`
}

func LoadConfig() *Config {
	return &Config{
		AirtablePAT:     getEnv("AIRTABLE_PAT", ""),
		AirtableBaseURL: getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
		BaseDir:         getEnv("DEVICE_BASE_DIR", ""),
		SharedDir:       getEnv("SHARED_CONTENT_DIR", ""),
		WindowsShared:   getEnv("WINDOWS_SHARED_PREFIX", ""),
		LinuxShared:     getEnv("LINUX_SHARED_PREFIX", ""),
		CreatorsFile:    getEnv("CREATORS_CONFIG", "config.json"),
		SyncSchedule:    getEnv("SYNC_SCHEDULE", ""),
		Google: Google{
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		},
		S3: S3{
			AccountID:  getEnv("S3_ACCOUNT_ID", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			BucketName: getEnv("S3_BUCKET_NAME", ""),
		},
	}
}

func LoadCreators(path string) (*Creators, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read creators config: %w", err)
	}

	var creators Creators
	if err := json.Unmarshal(data, &creators); err != nil {
		return nil, fmt.Errorf("failed to parse creators config: %w", err)
	}

	return &creators, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
