package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ProviderLocal   = "local"
	ProviderCognito = "cognito"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	ApiPort  int    `yaml:"api_port" env:"API_PORT" env-default:"8080"`
	ApiHost  string `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	Postgres `yaml:"postgres"`
	Auth     `yaml:"auth"`
	Cognito  `yaml:"cognito"`
	Redis    `yaml:"redis"`
	Cors     `yaml:"cors"`
	Cron     `yaml:"cron"`
}

type Postgres struct {
	Host string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"POSTGRES_PORT" env-default:"5433"`
	User string `yaml:"user" env:"POSTGRES_USER" env-default:"test"`
	Pass string `yaml:"pass" env:"POSTGRES_PASS" env-default:"12345"`
	Db   string `yaml:"db" env:"POSTGRES_DB" env-default:"test_db"`
}

type Auth struct {
	Provider  string        `yaml:"provider" env:"AUTH_PROVIDER" env-default:"local" env-choices:"local,cognito"`
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"secret42212"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"168h"`
	SyncTTL   time.Duration `yaml:"sync_ttl" env:"SYNC_TTL" env-default:"720h"`
}

type Cognito struct {
	Region     string `yaml:"region" env:"AWS_COGNITO_REGION"`
	UserPoolID string `yaml:"user_pool_id" env:"AWS_USER_POOLS_ID"`
	ClientID   string `yaml:"client_id" env:"AWS_USER_POOLS_WEB_CLIENT_ID"`
}

// Redis holds the sync marker cache settings. An empty Addr keeps markers in memory.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Cors struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type Cron struct {
	Enabled  bool   `yaml:"enabled" env:"CRON_ENABLED" env-default:"false"`
	Secret   string `yaml:"secret" env:"CRON_SECRET"`
	APIURL   string `yaml:"api_url" env:"CRON_API_URL"`
	Schedule string `yaml:"schedule" env:"CRON_SCHEDULE" env-default:"@every 10m"`
}

func MustLoad() *Config {
	path := fetchConfigPath()

	cfg, err := Load(path)
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

// Load reads the YAML file at path with environment overrides. Without a
// path, configuration comes from the environment alone.
func Load(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, err
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
