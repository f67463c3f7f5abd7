package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const hash = "$argon2id$v=19$m=65536,t=1,p=2$c2FsdHNhbHQ$aGFzaGhhc2g"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.StorageDriver)
	require.Equal(t, DefaultClientEventTopic, cfg.PubSub.ClientEventTopic)
	require.Equal(t, DefaultCDCSubscription, cfg.PubSub.CDCSubscription)
	require.Equal(t, time.Hour, cfg.JWT.TTL)
	require.False(t, cfg.PublishOnCreate)
	require.Empty(t, cfg.ServiceAccounts)
	require.Error(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CLIENTS_STORAGE_DRIVER", "memory")
	t.Setenv("CLIENTS_JWT_KEY", "secret")
	t.Setenv("CLIENTS_JWT_TTL", "15m")
	t.Setenv("CLIENTS_PUBLISH_ON_CREATE", "true")
	t.Setenv("CLIENTS_SERVICE_ACCOUNTS", "billing:"+hash+" crm:"+hash)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DriverMemory, cfg.StorageDriver)
	require.Equal(t, "secret", cfg.JWT.Key)
	require.Equal(t, 15*time.Minute, cfg.JWT.TTL)
	require.True(t, cfg.PublishOnCreate)
	require.Equal(t, map[string]string{"billing": hash, "crm": hash}, cfg.ServiceAccounts)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	content := "storage_driver: mongo\njwt:\n  key: filekey\nservice_accounts:\n  - \"billing:" + hash + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("CLIENTS_MONGODB_DATABASE", "fromenv")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DriverMongo, cfg.StorageDriver)
	require.Equal(t, "filekey", cfg.JWT.Key)
	require.Equal(t, "fromenv", cfg.MongoDatabase)
	require.Equal(t, map[string]string{"billing": hash}, cfg.ServiceAccounts)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StorageDriver: "mysql", JWT: JWT{Key: "k", TTL: time.Minute}}
	require.Error(t, cfg.Validate())

	cfg.StorageDriver = DriverMemory
	require.NoError(t, cfg.Validate())

	cfg.JWT.TTL = 0
	require.Error(t, cfg.Validate())
}

func TestParseServiceAccounts(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", entries: nil, want: map[string]string{}},
		{name: "blank entries skipped", entries: []string{" ", "a:" + hash}, want: map[string]string{"a": hash}},
		{name: "missing separator", entries: []string{"a"}, wantErr: true},
		{name: "missing hash", entries: []string{"a:"}, wantErr: true},
		{name: "duplicate id", entries: []string{"a:" + hash, "a:" + hash}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseServiceAccounts(test.entries)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}
