package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ESCROW"

// Keys, also used as flag names with '_' replaced by '-'.
const (
	KeyHTTPAddr         = "http_addr"
	KeyDatabaseURL      = "database_url"
	KeyKafkaBrokers     = "kafka_brokers"
	KeyKafkaTopicPrefix = "kafka_topic_prefix"
	KeyLogLevel         = "log_level"
	KeyLogJSON          = "log_json"
	KeyLedgerID         = "ledger_id"
	KeySandbox          = "sandbox"
	KeyVenueFee         = "venue_fee"
	KeyVenueReserveA    = "venue_reserve_a"
	KeyVenueReserveB    = "venue_reserve_b"
)

type Config struct {
	HTTPAddr         string
	DatabaseURL      string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	LogLevel         zerolog.Level
	LogJSON          bool
	LedgerID         uuid.UUID
	Sandbox          bool
	VenueFee         math.LegacyDec
	VenueReserveA    math.Int
	VenueReserveB    math.Int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyKafkaBrokers, []string{})
	v.SetDefault(KeyKafkaTopicPrefix, "escrow")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyLedgerID, "")
	v.SetDefault(KeySandbox, true)
	v.SetDefault(KeyVenueFee, "0.003")
	v.SetDefault(KeyVenueReserveA, "1000000000")
	v.SetDefault(KeyVenueReserveB, "1000000000")
}

// RegisterFlags adds one flag per key to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(flagName(KeyHTTPAddr), ":8080", "HTTP listen address")
	flags.String(flagName(KeyDatabaseURL), "", "postgres DSN for the journal (memory journal when empty)")
	flags.StringSlice(flagName(KeyKafkaBrokers), nil, "kafka brokers for events (in-process recorder when empty)")
	flags.String(flagName(KeyKafkaTopicPrefix), "escrow", "prefix of event topics")
	flags.String(flagName(KeyLogLevel), "info", "log level (debug, info, warn, error)")
	flags.Bool(flagName(KeyLogJSON), false, "emit JSON logs")
	flags.String(flagName(KeyLedgerID), "", "identity of the ledger's custody account (random when empty)")
	flags.Bool(flagName(KeySandbox), true, "run with in-memory assets and exchange venue")
	flags.String(flagName(KeyVenueFee), "0.003", "sandbox venue swap fee")
	flags.String(flagName(KeyVenueReserveA), "1000000000", "sandbox venue initial asset A reserve")
	flags.String(flagName(KeyVenueReserveB), "1000000000", "sandbox venue initial asset B reserve")
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load reads .env (if present), ESCROW_* environment variables and the flags in fs,
// in increasing order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet, envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		for _, key := range []string{
			KeyHTTPAddr, KeyDatabaseURL, KeyKafkaBrokers, KeyKafkaTopicPrefix, KeyLogLevel, KeyLogJSON,
			KeyLedgerID, KeySandbox, KeyVenueFee, KeyVenueReserveA, KeyVenueReserveB,
		} {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:         v.GetString(KeyHTTPAddr),
		DatabaseURL:      v.GetString(KeyDatabaseURL),
		KafkaBrokers:     splitList(v.GetStringSlice(KeyKafkaBrokers)),
		KafkaTopicPrefix: v.GetString(KeyKafkaTopicPrefix),
		LogJSON:          v.GetBool(KeyLogJSON),
		Sandbox:          v.GetBool(KeySandbox),
	}

	level, err := zerolog.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", KeyLogLevel, err)
	}
	cfg.LogLevel = level

	if raw := v.GetString(KeyLedgerID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", KeyLedgerID, err)
		}
		if id == uuid.Nil {
			return Config{}, fmt.Errorf("config: %s must not be the nil uuid", KeyLedgerID)
		}
		cfg.LedgerID = id
	} else {
		cfg.LedgerID = uuid.New()
	}

	fee, err := math.LegacyNewDecFromStr(v.GetString(KeyVenueFee))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", KeyVenueFee, err)
	}
	if fee.IsNegative() || fee.GTE(math.LegacyOneDec()) {
		return Config{}, fmt.Errorf("config: %s must be in [0, 1), got %s", KeyVenueFee, fee)
	}
	cfg.VenueFee = fee

	if cfg.VenueReserveA, err = positiveInt(v, KeyVenueReserveA); err != nil {
		return Config{}, err
	}
	if cfg.VenueReserveB, err = positiveInt(v, KeyVenueReserveB); err != nil {
		return Config{}, err
	}

	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("config: %s is required", KeyHTTPAddr)
	}
	if cfg.KafkaTopicPrefix == "" {
		return Config{}, fmt.Errorf("config: %s is required", KeyKafkaTopicPrefix)
	}
	return cfg, nil
}

func positiveInt(v *viper.Viper, key string) (math.Int, error) {
	raw := v.GetString(key)
	i, ok := math.NewIntFromString(raw)
	if !ok || !i.IsPositive() {
		return math.Int{}, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return i, nil
}

// splitList accepts both repeated values and a single comma separated value, which
// is how lists arrive from the environment.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
