package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	CookieSecure     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	MediaRoot    string
	MediaBaseURL string

	StockPolicy string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	AdminEmail   string
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "marketplace")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ACCESS_TTL", "15m")
	v.SetDefault("REFRESH_TTL", "168h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", "336h")
	v.SetDefault("KAFKA_TOPIC", "marketplace-events")
	v.SetDefault("KAFKA_GROUP_ID", "marketplace-notify")
	v.SetDefault("ES_INDEX", "products")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("MEDIA_BASE_URL", "/media/")
	v.SetDefault("STOCK_POLICY", "reject")
	v.SetDefault("SMTP_PORT", 587)
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("env_file_not_loaded", "error", err)
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		ServiceName: v.GetString("SERVICE_NAME"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		ServerPort: v.GetInt("SERVER_PORT"),

		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTAccessSecret:  []byte(v.GetString("JWT_SECRET")),
		JWTRefreshSecret: []byte(v.GetString("JWT_REFRESH_SECRET")),
		AccessTTL:        v.GetDuration("ACCESS_TTL"),
		RefreshTTL:       v.GetDuration("REFRESH_TTL"),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),

		KafkaBrokers: CSV(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		KafkaGroupID: v.GetString("KAFKA_GROUP_ID"),

		ESURL:      v.GetString("ES_URL"),
		ESUser:     v.GetString("ES_USER"),
		ESPassword: v.GetString("ES_PASSWORD"),
		ESIndex:    v.GetString("ES_INDEX"),

		MediaRoot:    v.GetString("MEDIA_ROOT"),
		MediaBaseURL: v.GetString("MEDIA_BASE_URL"),

		StockPolicy: strings.ToLower(v.GetString("STOCK_POLICY")),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),
		AdminEmail:   v.GetString("ADMIN_EMAIL"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
