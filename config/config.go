package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Configs struct {
	Env string

	Database         DatabaseConfigs
	ApiServer        ServerConfigs
	PrometheusServer ServerConfigs
	Log              LogConfigs
	Redis            RedisConfigs
	Kafka            KafkaConfigs
	Peerplays        PeerplaysConfigs
	Settlement       SettlementConfigs
	Resolver         ResolverConfigs
	Webhook          WebhookConfigs
	Token            TokenConfigs
}

type DatabaseConfigs struct {
	// Driver is one of mysql, postgres or sqlite.
	Driver   string
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host,
			d.Port,
			d.User,
			d.Password,
			d.Database,
		)
	case "sqlite":
		return d.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		)
	}
}

type ServerConfigs struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type LogConfigs struct {
	// Backend is zap or std.
	Backend    string
	Level      string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

type RedisConfigs struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfigs struct {
	Addr string

	PaymentEventTopic    string
	PurchaseConfirmTopic string
	WinnerTopic          string
	SubscriberGroup      string
}

func (k KafkaConfigs) Enabled() bool {
	return k.Addr != ""
}

type PeerplaysConfigs struct {
	Endpoints           []string
	ChainID             string
	AddressPrefix       string
	HealthCheckInterval time.Duration
	MaxRetryTimeout     time.Duration

	PaymentAccountID  string
	PaymentAccountWIF string

	ReceiverAccountID  string
	ReceiverAccountWIF string

	// SendAssetID is the asset used for fiat-equivalent transfers and
	// TicketAssetID the asset used to pay for lottery tickets.
	SendAssetID      string
	SendAssetScale   int32
	TicketAssetID    string
	TicketAssetScale int32
	TicketPrice      decimal.Decimal

	// MaxTicketSupply caps the tickets of lotteries created on registration.
	MaxTicketSupply int64
}

type SettlementConfigs struct {
	// LockBackend is memory or redis.
	LockBackend string
	LockTTL     time.Duration
}

type ResolverConfigs struct {
	Interval time.Duration
}

type WebhookConfigs struct {
	Secret string
}

// TokenConfigs signs the bearer tokens of operators calling the management
// APIs. An empty secret disables the check.
type TokenConfigs struct {
	Secret     string
	Expiration time.Duration
}
