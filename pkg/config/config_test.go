package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	require.Nil(t, CSV(""))
	require.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	defaults(v)
	cfg := fromViper(v)

	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, "reject", cfg.StockPolicy)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, "products", cfg.ESIndex)
}

func TestFromViperOverrides(t *testing.T) {
	t.Setenv("STOCK_POLICY", "CLAMP")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SERVER_PORT", "9000")

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	cfg := fromViper(v)

	require.Equal(t, "clamp", cfg.StockPolicy)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 9000, cfg.ServerPort)
}

func TestValidate(t *testing.T) {
	cfg := Config{StockPolicy: "reject"}
	require.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.DatabaseURL = "postgres://x"
	cfg.JWTAccessSecret = []byte("a")
	cfg.JWTRefreshSecret = []byte("b")
	require.NoError(t, cfg.Validate())

	cfg.StockPolicy = "oversell"
	require.Error(t, cfg.Validate())
}

func TestMustNonEmpty(t *testing.T) {
	require.Panics(t, func() { MustNonEmpty("", "X") })
	require.NotPanics(t, func() { MustNonEmpty("v", "X") })
}
