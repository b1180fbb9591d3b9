package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
Env = "staging"

[Database]
Driver = "postgres"
Host = "db"
Port = "5432"

[Peerplays]
Endpoints = ["wss://node1.example", "wss://node2.example"]
PaymentAccountID = "1.2.100"
TicketPrice = "2.5"
HealthCheckInterval = "30s"

[Resolver]
Interval = "5m"
`), 0600))

	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("WEBHOOK_SECRET", "hook")
	t.Setenv("RESOLVER_INTERVAL", "90s")
	t.Setenv("PEERPLAYS_MAX_TICKET_SUPPLY", "5000")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "secret", cfg.Database.Password)
	require.Equal(t, "host=db port=5432 user=root password=secret dbname=raffle sslmode=disable",
		cfg.Database.ConnectionString())

	require.Equal(t, []string{"wss://node1.example", "wss://node2.example"}, cfg.Peerplays.Endpoints)
	require.Equal(t, "1.2.100", cfg.Peerplays.PaymentAccountID)
	require.True(t, decimal.RequireFromString("2.5").Equal(cfg.Peerplays.TicketPrice))
	require.Equal(t, 30*time.Second, cfg.Peerplays.HealthCheckInterval)
	require.Equal(t, int64(5000), cfg.Peerplays.MaxTicketSupply)

	// Defaults survive where the file is silent.
	require.Equal(t, "1.3.0", cfg.Peerplays.SendAssetID)
	require.Equal(t, "memory", cfg.Settlement.LockBackend)

	require.Equal(t, "hook", cfg.Webhook.Secret)
	require.Equal(t, 90*time.Second, cfg.Resolver.Interval)
}

func Test_Load_InvalidEnv(t *testing.T) {
	t.Setenv("PEERPLAYS_TICKET_PRICE", "one dollar")

	_, err := Load("")
	require.Error(t, err)
}
