package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Load reads the TOML file at path, if any, on top of the defaults and then
// applies environment overrides. Variables found in a .env file of the working
// directory are exported first.
func Load(path string) (Configs, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Configs{}, err
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

func Default() Configs {
	return Configs{
		Env: "local",
		Database: DatabaseConfigs{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			Database: "raffle",
			User:     "root",
			LogLevel: "error",
		},
		ApiServer:        ServerConfigs{Port: "8080"},
		PrometheusServer: ServerConfigs{Port: "9090"},
		Log:              LogConfigs{Backend: "std", Level: "info", MaxSize: 100, MaxBackups: 5, MaxAge: 30},
		Redis:            RedisConfigs{Addr: "localhost:6379"},
		Kafka: KafkaConfigs{
			PaymentEventTopic:    "payment_event",
			PurchaseConfirmTopic: "purchase_confirm",
			WinnerTopic:          "raffle_winner",
			SubscriberGroup:      "raffle-settlement",
		},
		Peerplays: PeerplaysConfigs{
			AddressPrefix:       "PPY",
			HealthCheckInterval: 10 * time.Second,
			SendAssetID:         "1.3.0",
			SendAssetScale:      5,
			TicketAssetID:       "1.3.1",
			TicketAssetScale:    5,
			TicketPrice:         decimal.NewFromInt(1),
			MaxTicketSupply:     1000000000,
		},
		Settlement: SettlementConfigs{LockBackend: "memory", LockTTL: 5 * time.Minute},
		Resolver:   ResolverConfigs{Interval: time.Minute},
		Token:      TokenConfigs{Expiration: 30 * 24 * time.Hour},
	}
}

func applyEnv(cfg *Configs) error {
	setString(&cfg.Env, "ENV")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")

	setString(&cfg.ApiServer.Port, "API_PORT")
	setString(&cfg.PrometheusServer.Port, "PROMETHEUS_PORT")
	setString(&cfg.Log.Backend, "LOG_BACKEND")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Kafka.Addr, "KAFKA_ADDR")

	setString(&cfg.Peerplays.PaymentAccountID, "PEERPLAYS_PAYMENT_ACCOUNT_ID")
	setString(&cfg.Peerplays.PaymentAccountWIF, "PEERPLAYS_PAYMENT_ACCOUNT_WIF")
	setString(&cfg.Peerplays.ReceiverAccountID, "PEERPLAYS_RECEIVER_ACCOUNT_ID")
	setString(&cfg.Peerplays.ReceiverAccountWIF, "PEERPLAYS_RECEIVER_ACCOUNT_WIF")
	setString(&cfg.Settlement.LockBackend, "SETTLEMENT_LOCK_BACKEND")
	setString(&cfg.Webhook.Secret, "WEBHOOK_SECRET")
	setString(&cfg.Token.Secret, "TOKEN_SECRET")

	if v, ok := os.LookupEnv("PEERPLAYS_TICKET_PRICE"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		cfg.Peerplays.TicketPrice = price
	}

	if v, ok := os.LookupEnv("PEERPLAYS_MAX_TICKET_SUPPLY"); ok {
		supply, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		cfg.Peerplays.MaxTicketSupply = supply
	}

	if v, ok := os.LookupEnv("RESOLVER_INTERVAL"); ok {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.Resolver.Interval = interval
	}

	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Redis.DB = db
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
