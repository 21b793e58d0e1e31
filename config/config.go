package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "PRIMEHOUSE_CONFIG_FILE"
	envPrefix         = "PRIMEHOUSE"
	masked            = "******"
)

var defaults = map[string]any{
	"log_level":          "info",
	"log_format":         "json",
	"sql_db":             "",
	"max_document_bytes": 1 << 20,

	"http.addr":         ":8080",
	"http.cors_origins": []string{},

	"auth.jwt_secret": "",
	"auth.token_ttl":  12 * time.Hour,
	// base64("admin@primehouse.com")
	"auth.admin_hash": "YWRtaW5AcHJpbWVob3VzZS5jb20=",
	"auth.users":      []map[string]any{},

	"broker.seed_brokers":             []string{},
	"broker.schema_registry_urls":     []string{},
	"broker.topics.property_commands": "property_commands",
	"broker.groups.properties":        "properties_group",
	"broker.tls.ca":                   "",
	"broker.tls.cert":                 "",
	"broker.tls.key":                  "",
	"broker.sasl.user":                "",
	"broker.sasl.pass":                "",
}

type httpServer struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type User struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

type auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	AdminHash string        `mapstructure:"admin_hash"`
	Users     []User        `mapstructure:"users"`
}

type topics struct {
	PropertyCommands string `mapstructure:"property_commands"`
}

type groups struct {
	Properties string `mapstructure:"properties"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

// Enabled reports whether all three files are set.
func (t tlsFiles) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type sasl struct {
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	Topics             topics   `mapstructure:"topics"`
	Groups             groups   `mapstructure:"groups"`
	TLS                tlsFiles `mapstructure:"tls"`
	SASL               sasl     `mapstructure:"sasl"`
}

type Config struct {
	LogLevel         slog.Level `mapstructure:"log_level"`
	LogFormat        string     `mapstructure:"log_format"`
	SQLDB            string     `mapstructure:"sql_db"`
	MaxDocumentBytes int        `mapstructure:"max_document_bytes"`
	HTTP             httpServer `mapstructure:"http"`
	Auth             auth       `mapstructure:"auth"`
	Broker           broker     `mapstructure:"broker"`
}

// Load reads .env, the config file and PRIMEHOUSE_* environment
// variables, in increasing priority. Any failure terminates the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		die(err)
	}

	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile builds the config without touching .env or the command line.
// An empty path means environment and defaults only.
func LoadFile(path string) (Config, error) {
	const op = "config.LoadFile"

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers: required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required"))
	}
	if c.Broker.Topics.PropertyCommands == "" {
		errs = append(errs, errors.New("broker.topics.property_commands: required"))
	}
	if c.Broker.Groups.Properties == "" {
		errs = append(errs, errors.New("broker.groups.properties: required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret: required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl: must be positive"))
	}
	if c.MaxDocumentBytes <= 0 {
		errs = append(errs, errors.New("max_document_bytes: must be positive"))
	}
	switch c.LogFormat {
	case "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	LogFormat=%q
	SQLDB=%q
	MaxDocumentBytes=%d

	HTTP:
	Addr=%q
	CORSOrigins=%q

	Auth:
	JWTSecret=%q
	TokenTTL=%q
	AdminHash=%q
	Users=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		PropertyCommands=%q
	Groups:
		Properties=%q
	TLS=%t
	SASLUser=%q
	SASLPass=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.LogFormat,
		mask(c.SQLDB),
		c.MaxDocumentBytes,
		c.HTTP.Addr,
		c.HTTP.CORSOrigins,
		mask(c.Auth.JWTSecret),
		c.Auth.TokenTTL,
		c.Auth.AdminHash,
		c.userEmails(),
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.PropertyCommands,
		c.Broker.Groups.Properties,
		c.Broker.TLS.Enabled(),
		c.Broker.SASL.User,
		mask(c.Broker.SASL.Pass),
	)
}

func (c Config) userEmails() []string {
	emails := make([]string, 0, len(c.Auth.Users))
	for _, u := range c.Auth.Users {
		emails = append(emails, u.Email)
	}
	return emails
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return masked
}
