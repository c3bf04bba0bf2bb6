package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/agalitsyn/secret"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   secret.String
	Name       string
	SSLMode    string
	SQLitePath string
}

type RabbitMQConfig struct {
	Host       string
	Port       string
	User       string
	Password   secret.String
	AuditQueue string
}

type Config struct {
	Debug    bool
	HTTPAddr string
	GRPCAddr string
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

// fileConfig - форма YAML-файла. Все поля необязательные.
type fileConfig struct {
	Debug  *bool `yaml:"debug"`
	Server struct {
		HTTPAddr string `yaml:"http_addr"`
		GRPCAddr string `yaml:"grpc_addr"`
	} `yaml:"server"`
	Database struct {
		Driver     string `yaml:"driver"`
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SSLMode    string `yaml:"sslmode"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		AuditQueue string `yaml:"audit_queue"`
	} `yaml:"rabbitmq"`
}

func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		GRPCAddr: "",
		Database: DatabaseConfig{
			Driver:     DriverPostgres,
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			Password:   secret.NewString(""),
			Name:       "tarefas",
			SSLMode:    "disable",
			SQLitePath: "tarefas.db",
		},
		RabbitMQ: RabbitMQConfig{
			Port:       "5672",
			User:       "guest",
			Password:   secret.NewString("guest"),
			AuditQueue: "task_audit_logs",
		},
	}
}

// Load: значения по умолчанию -> YAML из CONFIG_PATH -> переменные окружения.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
	setString(&c.HTTPAddr, fc.Server.HTTPAddr)
	setString(&c.GRPCAddr, fc.Server.GRPCAddr)

	setString(&c.Database.Driver, fc.Database.Driver)
	setString(&c.Database.Host, fc.Database.Host)
	setString(&c.Database.Port, fc.Database.Port)
	setString(&c.Database.User, fc.Database.User)
	setSecret(&c.Database.Password, fc.Database.Password)
	setString(&c.Database.Name, fc.Database.Name)
	setString(&c.Database.SSLMode, fc.Database.SSLMode)
	setString(&c.Database.SQLitePath, fc.Database.SQLitePath)

	setString(&c.RabbitMQ.Host, fc.RabbitMQ.Host)
	setString(&c.RabbitMQ.Port, fc.RabbitMQ.Port)
	setString(&c.RabbitMQ.User, fc.RabbitMQ.User)
	setSecret(&c.RabbitMQ.Password, fc.RabbitMQ.Password)
	setString(&c.RabbitMQ.AuditQueue, fc.RabbitMQ.AuditQueue)
	return nil
}

func (c *Config) loadEnv() error {
	if v, ok := os.LookupEnv("LOG_DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("could not parse LOG_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	setString(&c.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&c.GRPCAddr, os.Getenv("GRPC_ADDR"))

	setString(&c.Database.Driver, os.Getenv("DB_DRIVER"))
	setString(&c.Database.Host, os.Getenv("DB_HOST"))
	setString(&c.Database.Port, os.Getenv("DB_PORT"))
	setString(&c.Database.User, os.Getenv("DB_USER"))
	setSecret(&c.Database.Password, os.Getenv("DB_PASSWORD"))
	setString(&c.Database.Name, os.Getenv("DB_NAME"))
	setString(&c.Database.SSLMode, os.Getenv("DB_SSLMODE"))
	setString(&c.Database.SQLitePath, os.Getenv("SQLITE_PATH"))

	setString(&c.RabbitMQ.Host, os.Getenv("RABBITMQ_HOST"))
	setString(&c.RabbitMQ.Port, os.Getenv("RABBITMQ_PORT"))
	setString(&c.RabbitMQ.User, os.Getenv("RABBITMQ_USER"))
	setSecret(&c.RabbitMQ.Password, os.Getenv("RABBITMQ_PASSWORD"))
	setString(&c.RabbitMQ.AuditQueue, os.Getenv("AUDIT_QUEUE"))
	return nil
}

func (c Config) Validate() error {
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("http address is required")
	}
	if c.RabbitMQEnabled() && c.RabbitMQ.AuditQueue == "" {
		return errors.New("audit queue name is required when rabbitmq is enabled")
	}
	return nil
}

// PostgresURL собирает строку подключения в формате, понятном pgx и migrate.
func (c Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.Database.User, c.Database.Password.Unmask()),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// RabbitMQEnabled - аудит включается заданием RABBITMQ_HOST.
func (c Config) RabbitMQEnabled() bool {
	return c.RabbitMQ.Host != ""
}

func (c Config) RabbitMQURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password.Unmask()),
		Host:   c.RabbitMQ.Host + ":" + c.RabbitMQ.Port,
		Path:   "/",
	}
	return u.String()
}

// Secrets - значения, которые логгер должен маскировать.
func (c Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.Database.Password.Unmask(), c.RabbitMQ.Password.Unmask()} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Config) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(b)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSecret(dst *secret.String, v string) {
	if v != "" {
		*dst = secret.NewString(v)
	}
}
