package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyBytes      int64
	MaxConcurrent     int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type LogFile struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string
	JSON  bool
	File  LogFile
}

type JWT struct {
	Secret string
	Issuer string
	TTLMs  int64 `mapstructure:"ttlMs"`
}

// TTL 令牌有效期（配置单位为毫秒）
func (j JWT) TTL() time.Duration { return time.Duration(j.TTLMs) * time.Millisecond }

type Validation struct {
	EmailRegex    string `mapstructure:"emailRegex"`
	PasswordRegex string `mapstructure:"passwordRegex"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimit struct {
	Enable    bool
	Backend   string // memory | redis
	RPS       float64
	Burst     int
	PerIP     int
	WindowSec int
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	Validation Validation
	DB         DB
	Redis      Redis     `mapstructure:"redis"`
	RateLimit  RateLimit `mapstructure:"rateLimit"`
}

const (
	DefaultEmailRegex    = `[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`
	DefaultPasswordRegex = `(?=.*[a-z])(?=.*[A-Z])(?=.*\d)[A-Za-z\d]{8,}`
	DefaultTokenTTLMs    = 864_000_000 // 10 天
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "registro")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyBytes", 1<<20)
	v.SetDefault("app.http.maxConcurrent", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file.enable", false)
	v.SetDefault("log.file.filename", "logs/app.log")
	v.SetDefault("log.file.maxSizeMB", 100)
	v.SetDefault("log.file.maxBackups", 7)
	v.SetDefault("log.file.maxAgeDays", 30)
	v.SetDefault("log.file.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.ttlMs", DefaultTokenTTLMs)

	v.SetDefault("validation.emailRegex", DefaultEmailRegex)
	v.SetDefault("validation.passwordRegex", DefaultPasswordRegex)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rateLimit.enable", true)
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.rps", 200)
	v.SetDefault("rateLimit.burst", 400)
	v.SetDefault("rateLimit.perIP", 30)
	v.SetDefault("rateLimit.windowSec", 60)
}

// Load 读取 YAML + 环境变量（APP_ 前缀，. 替换为 _）
// 文件不存在时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) validate() error {
	if c.JWT.TTLMs <= 0 {
		return fmt.Errorf("jwt.ttlMs must be positive, got %d", c.JWT.TTLMs)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("rateLimit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("rateLimit.backend=redis requires redis.addr")
	}
	return nil
}
