package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	StripeConfig struct {
		SecretKey  string
		Currency   string
		MinAmount  int64 // smallest payable amount, in major units
		SuccessURL string
		CancelURL  string
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string

		AppName          string
		SecretKey        string
		DataDir          string
		FrontendBaseURL  string
		DefaultFromName  string
		DefaultFromAddr  string
		SendgridApiKey   string
		RollbarToken     string
		ReminderSchedule string

		Server ServerConfig
		Stripe StripeConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("secretKey", "+7y0%!r8b@wvn(q55@beh^9(14ga_2-y9g)x&swt1%t#x^0i_d")
	conf.SetDefault("build", "dev")
	conf.SetDefault("dataDir", filepath.Join(Getwd(), "data"))
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromName", "Shule")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("reminderSchedule", "0 8 * * *") // daily 08:00

	conf.SetDefault("server.host", "0.0.0.0:8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:8001")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("stripe.currency", "inr")
	conf.SetDefault("stripe.minAmount", 50)
	conf.SetDefault("stripe.successURL", "http://localhost:5173/dashboard/parent?payment=success&session_id={CHECKOUT_SESSION_ID}")
	conf.SetDefault("stripe.cancelURL", "http://localhost:5173/dashboard/parent?payment=cancelled")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:    conf.GetBool("debug"),
		TestMode: env == "TEST",
		Env:      env,
		Build:    conf.GetString("build"),

		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		DataDir:          conf.GetString("dataDir"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromName:  conf.GetString("defaultFromName"),
		DefaultFromAddr:  conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		ReminderSchedule: conf.GetString("reminderSchedule"),

		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			DebugHost:                 conf.GetString("server.debugHost"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Stripe: StripeConfig{
			SecretKey:  conf.GetString("stripe.secretKey"),
			Currency:   conf.GetString("stripe.currency"),
			MinAmount:  conf.GetInt64("stripe.minAmount"),
			SuccessURL: conf.GetString("stripe.successURL"),
			CancelURL:  conf.GetString("stripe.cancelURL"),
		},
	}
}

func (c *Config) DefaultFromEmail() *mail.Address {
	return &mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}
