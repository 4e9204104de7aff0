package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/redis/go-redis/v9"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	alertsmanager "github.com/sanchit-4/universal-nft/internal/infrastructure/alertsmanager"
	abicodec "github.com/sanchit-4/universal-nft/internal/infrastructure/codec/abi"
	borshcodec "github.com/sanchit-4/universal-nft/internal/infrastructure/codec/borsh"
	"github.com/sanchit-4/universal-nft/internal/infrastructure/db"
	httpgateway "github.com/sanchit-4/universal-nft/internal/infrastructure/gateway/http"
	inmemorygateway "github.com/sanchit-4/universal-nft/internal/infrastructure/gateway/inmemory"
	redisgateway "github.com/sanchit-4/universal-nft/internal/infrastructure/gateway/redis"
	badgerledger "github.com/sanchit-4/universal-nft/internal/infrastructure/ledger/badger"
	inmemoryledger "github.com/sanchit-4/universal-nft/internal/infrastructure/ledger/inmemory"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	supportedEventDbs = supportedType{
		"inmemory": {},
		"postgres": {},
	}
	supportedDbs = supportedType{
		"badger":   {},
		"sqlite":   {},
		"postgres": {},
	}
	supportedLedgers = supportedType{
		"inmemory": {},
		"badger":   {},
	}
	supportedCodecs = supportedType{
		"borsh": {},
		"abi":   {},
	}
	supportedGatewayTransports = supportedType{
		"inmemory": {},
		"http":     {},
		"redis":    {},
	}
)

type Config struct {
	Datadir               string
	Port                  uint32
	LogLevel              int
	ProgramID             string
	ChainID               uint64
	DbType                string
	DbDir                 string
	DbUrl                 string
	EventDbType           string
	EventDbUrl            string
	LedgerType            string
	CodecType             string
	GatewayTransportType  string
	GatewayURL            string
	RedisUrl              string
	RedisStream           string
	RedisNumOfRetries     int
	AlertManagerURL       string
	ExplorerURL           string
	OtelCollectorEndpoint string
	NoAuth                bool

	programID common.PublicKey
	repo      ports.RepoManager
	ledger    ports.Ledger
	codec     ports.MessageCodec
	gateway   ports.GatewayTransport
	alerts    ports.Alerts
	svc       application.Service
}

func (c *Config) String() string {
	clone := *c
	if clone.DbUrl != "" {
		clone.DbUrl = "••••••"
	}
	if clone.EventDbUrl != "" {
		clone.EventDbUrl = "••••••"
	}
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	defaultDatadir              = defaultAppDataDir()
	DefaultPort                 = 7080
	defaultLogLevel             = 4
	defaultProgramID            = "5nqfDd7MiQM9FZJN26ZFumS1uKxhsvpeCjtTWFdbv5BR"
	defaultChainID              = 900
	defaultDbType               = "sqlite"
	defaultEventDbType          = "inmemory"
	defaultLedgerType           = "badger"
	defaultCodecType            = "borsh"
	defaultGatewayTransportType = "inmemory"
	defaultRedisNumOfRetries    = 10
)

// env returns a list of strings prefixed with `NFTBRIDGE_`.
// This is used as a syntax sugar for defining env vars.
func env(values ...string) []string {
	envs := make([]string, len(values))

	for i, value := range values {
		envs[i] = fmt.Sprintf("NFTBRIDGE_%s", value)
	}

	return envs
}

var (
	Datadir = &cli.StringFlag{
		Usage: "Directory to store data",
		Name:  "datadir", EnvVars: env("DATADIR"),
		Value: defaultDatadir,
	}

	Port = &cli.UintFlag{
		Usage: "Port to listen on",
		Name:  "port", EnvVars: env("PORT"),
		Value: uint(DefaultPort),
	}

	LogLevel = &cli.IntFlag{
		Usage: "Logging level (0-6, where 6 is trace)",
		Name:  "log-level", EnvVars: env("LOG_LEVEL"),
		Value: defaultLogLevel,
	}

	ProgramID = &cli.StringFlag{
		Usage: "Base58 id of the bridge program, every derived address depends on it",
		Name:  "program-id", EnvVars: env("PROGRAM_ID"),
		Value: defaultProgramID,
	}

	ChainID = &cli.Uint64Flag{
		Usage: "Chain id of this side of the bridge, used as origin of outbound messages",
		Name:  "chain-id", EnvVars: env("CHAIN_ID"),
		Value: uint64(defaultChainID),
	}

	DbType = &cli.StringFlag{
		Usage: "Database type (postgres, sqlite, badger)",
		Name:  "db-type", EnvVars: env("DB_TYPE"),
		Value: defaultDbType,
	}

	DbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if NFTBRIDGE_DB_TYPE is set to postgres",
		Name:  "pg-db-url", EnvVars: env("PG_DB_URL"),
	}

	EventDbType = &cli.StringFlag{
		Usage: "Event database type (postgres, inmemory)",
		Name:  "event-db-type", EnvVars: env("EVENT_DB_TYPE"),
		Value: defaultEventDbType,
	}

	EventDbUrl = &cli.StringFlag{
		Usage: "Postgres connection url if NFTBRIDGE_EVENT_DB_TYPE is set to postgres",
		Name:  "pg-event-db-url", EnvVars: env("PG_EVENT_DB_URL"),
	}

	LedgerType = &cli.StringFlag{
		Usage: "Token ledger type (badger, inmemory)",
		Name:  "ledger-type", EnvVars: env("LEDGER_TYPE"),
		Value: defaultLedgerType,
	}

	CodecType = &cli.StringFlag{
		Usage: "Wire codec of gateway messages (borsh, abi)",
		Name:  "codec", EnvVars: env("CODEC"),
		Value: defaultCodecType,
	}

	GatewayTransportType = &cli.StringFlag{
		Usage: "Transport used to emit outbound messages (inmemory, http, redis)",
		Name:  "gateway-transport", EnvVars: env("GATEWAY_TRANSPORT"),
		Value: defaultGatewayTransportType,
	}

	GatewayURL = &cli.StringFlag{
		Usage: "Gateway relayer endpoint if NFTBRIDGE_GATEWAY_TRANSPORT is set to http",
		Name:  "gateway-url", EnvVars: env("GATEWAY_URL"),
	}

	RedisUrl = &cli.StringFlag{
		Usage: "Redis url if NFTBRIDGE_GATEWAY_TRANSPORT is set to redis",
		Name:  "redis-url", EnvVars: env("REDIS_URL"),
	}

	RedisStream = &cli.StringFlag{
		Usage: "Redis stream outbound messages are appended to",
		Name:  "redis-stream", EnvVars: env("REDIS_STREAM"),
		Value: redisgateway.DefaultStream,
	}

	RedisNumOfRetries = &cli.IntFlag{
		Usage: "Maximum number of attempts to append a message to the redis stream",
		Name:  "redis-num-of-retries", EnvVars: env("REDIS_NUM_OF_RETRIES"),
		Value: defaultRedisNumOfRetries,
	}

	AlertManagerURL = &cli.StringFlag{
		Usage: "AlertManager alerts endpoint, alerts are disabled if empty",
		Name:  "alert-manager-url", EnvVars: env("ALERT_MANAGER_URL"),
	}

	ExplorerURL = &cli.StringFlag{
		Usage: "Block explorer url used to link assets in alerts",
		Name:  "explorer-url", EnvVars: env("EXPLORER_URL"),
	}

	OtelCollectorEndpoint = &cli.StringFlag{
		Usage: "OpenTelemetry collector endpoint, tracing is disabled if empty",
		Name:  "collector-endpoint", EnvVars: env("COLLECTOR_ENDPOINT"),
	}

	NoAuth = &cli.BoolFlag{
		Usage: "Trust the X-Caller header without checking the request signature",
		Name:  "no-auth", EnvVars: env("NO_AUTH"),
	}
)

var Flags = []cli.Flag{
	Datadir,
	Port,
	LogLevel,
	ProgramID,
	ChainID,
	DbType,
	DbUrl,
	EventDbType,
	EventDbUrl,
	LedgerType,
	CodecType,
	GatewayTransportType,
	GatewayURL,
	RedisUrl,
	RedisStream,
	RedisNumOfRetries,
	AlertManagerURL,
	ExplorerURL,
	OtelCollectorEndpoint,
	NoAuth,
}

func LoadConfig(c *cli.Context) (*Config, error) {
	if err := initDatadir(c); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	dbPath := filepath.Join(c.String(Datadir.Name), "db")

	var eventDbUrl string
	if c.String(EventDbType.Name) == "postgres" {
		eventDbUrl = c.String(EventDbUrl.Name)
		if eventDbUrl == "" {
			return nil, fmt.Errorf("event db type set to 'postgres' but event db url is missing")
		}
	}

	var dbUrl string
	if c.String(DbType.Name) == "postgres" {
		dbUrl = c.String(DbUrl.Name)
		if dbUrl == "" {
			return nil, fmt.Errorf("db type set to 'postgres' but db url is missing")
		}
	}

	var redisUrl, gatewayUrl string
	switch c.String(GatewayTransportType.Name) {
	case "redis":
		redisUrl = c.String(RedisUrl.Name)
		if redisUrl == "" {
			return nil, fmt.Errorf("gateway transport set to 'redis' but redis url is missing")
		}
	case "http":
		gatewayUrl = c.String(GatewayURL.Name)
		if gatewayUrl == "" {
			return nil, fmt.Errorf("gateway transport set to 'http' but gateway url is missing")
		}
	}

	return &Config{
		Datadir:               c.String(Datadir.Name),
		Port:                  uint32(c.Uint(Port.Name)),
		LogLevel:              c.Int(LogLevel.Name),
		ProgramID:             c.String(ProgramID.Name),
		ChainID:               c.Uint64(ChainID.Name),
		DbType:                c.String(DbType.Name),
		DbDir:                 dbPath,
		DbUrl:                 dbUrl,
		EventDbType:           c.String(EventDbType.Name),
		EventDbUrl:            eventDbUrl,
		LedgerType:            c.String(LedgerType.Name),
		CodecType:             c.String(CodecType.Name),
		GatewayTransportType:  c.String(GatewayTransportType.Name),
		GatewayURL:            gatewayUrl,
		RedisUrl:              redisUrl,
		RedisStream:           c.String(RedisStream.Name),
		RedisNumOfRetries:     c.Int(RedisNumOfRetries.Name),
		AlertManagerURL:       c.String(AlertManagerURL.Name),
		ExplorerURL:           c.String(ExplorerURL.Name),
		OtelCollectorEndpoint: c.String(OtelCollectorEndpoint.Name),
		NoAuth:                c.Bool(NoAuth.Name),
	}, nil
}

func initDatadir(c *cli.Context) error {
	datadir := c.String(Datadir.Name)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0o755)
	}
	return nil
}

func defaultAppDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nftbridged"
	}
	return filepath.Join(home, ".nftbridged")
}

// Validate checks the config and builds every dependency of the app service. It is safe to call
// more than once.
func (c *Config) Validate() error {
	if c.svc != nil {
		return nil
	}

	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf(
			"event db type not supported, please select one of: %s",
			supportedEventDbs,
		)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedLedgers.supports(c.LedgerType) {
		return fmt.Errorf(
			"ledger type not supported, please select one of: %s", supportedLedgers,
		)
	}
	if !supportedCodecs.supports(c.CodecType) {
		return fmt.Errorf("codec not supported, please select one of: %s", supportedCodecs)
	}
	if !supportedGatewayTransports.supports(c.GatewayTransportType) {
		return fmt.Errorf(
			"gateway transport not supported, please select one of: %s",
			supportedGatewayTransports,
		)
	}
	if c.LogLevel < 0 || c.LogLevel > 6 {
		return fmt.Errorf("invalid log level, must be in range [0, 6]")
	}

	programID, err := domain.ParsePublicKey(c.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid program id: %s", err)
	}
	c.programID = programID

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.ledgerService(); err != nil {
		return err
	}
	if err := c.codecService(); err != nil {
		return err
	}
	if err := c.gatewayService(); err != nil {
		return err
	}
	if err := c.alertsService(); err != nil {
		return err
	}
	return c.appService()
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "inmemory":
	case "postgres":
		eventStoreConfig = []interface{}{c.EventDbUrl, true}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	case "postgres":
		dataStoreConfig = []interface{}{c.DbUrl, true}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) ledgerService() error {
	switch c.LedgerType {
	case "inmemory":
		c.ledger = inmemoryledger.NewLedger(c.programID)
	case "badger":
		ledger, err := badgerledger.NewLedger(c.programID, c.DbDir, log.New())
		if err != nil {
			return err
		}
		c.ledger = ledger
	default:
		return fmt.Errorf("unknown ledger type")
	}
	return nil
}

func (c *Config) codecService() error {
	switch c.CodecType {
	case "borsh":
		c.codec = borshcodec.NewCodec()
	case "abi":
		c.codec = abicodec.NewCodec()
	default:
		return fmt.Errorf("unknown codec")
	}
	return nil
}

func (c *Config) gatewayService() error {
	switch c.GatewayTransportType {
	case "inmemory":
		c.gateway = inmemorygateway.NewTransport()
	case "http":
		transport, err := httpgateway.NewTransport(c.GatewayURL, c.codec)
		if err != nil {
			return err
		}
		c.gateway = transport
	case "redis":
		opts, err := redis.ParseURL(c.RedisUrl)
		if err != nil {
			return fmt.Errorf("invalid redis url: %s", err)
		}
		transport, err := redisgateway.NewTransport(
			redis.NewClient(opts), c.RedisStream, c.codec, c.RedisNumOfRetries,
		)
		if err != nil {
			return err
		}
		c.gateway = transport
	default:
		return fmt.Errorf("unknown gateway transport")
	}
	return nil
}

func (c *Config) alertsService() error {
	if c.AlertManagerURL == "" {
		return nil
	}

	c.alerts = alertsmanager.NewService(c.AlertManagerURL, c.ExplorerURL)
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewService(
		c.programID, c.ChainID, c.repo, c.ledger, c.codec, c.gateway, c.alerts,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
