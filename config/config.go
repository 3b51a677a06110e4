// Package config builds the single Config value the report job runs with.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/sun0225SUN/umami-report-to-telegram/internal/client/telegram"
)

// Setting names. They double as environment variable names.
const (
	KeyUmamiApiUrl      = "UMAMI_API_URL"
	KeyUmamiWebsiteId   = "UMAMI_WEBSITE_ID"
	KeyUmamiApiToken    = "UMAMI_API_TOKEN"
	KeyUmamiUser        = "UMAMI_USER"
	KeyUmamiPassword    = "UMAMI_PASSWORD"
	KeyUmamiStartAt     = "UMAMI_START_AT"
	KeyUmamiEndAt       = "UMAMI_END_AT"
	KeyTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	KeyTelegramChatId   = "TELEGRAM_CHAT_ID"
	KeyTelegramApiUrl   = "TELEGRAM_API_URL"
	KeySchedule         = "REPORT_SCHEDULE"
	KeyDebug            = "DEBUG"
)

const DefaultUmamiUser = "admin"

var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError lists every required setting that is missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// New returns a viper instance wired to the environment with the job defaults applied.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyUmamiUser, DefaultUmamiUser)
	v.SetDefault(KeyTelegramApiUrl, telegram.DefaultApiUrl)
	return v
}

// LoadDotEnv loads the first existing .env file from paths into the process
// environment. Variables already set are not overridden. Having no .env file
// is not an error.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("unable to load %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}

// ReadFile merges an optional YAML config file into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file %s: %w", path, err)
	}
	return nil
}

func Read(v *viper.Viper) Config {
	siteList := v.GetString(KeyUmamiWebsiteId)
	user := strings.TrimSpace(v.GetString(KeyUmamiUser))
	if user == "" {
		user = DefaultUmamiUser
	}

	return Config{
		Umami: Umami{
			ApiUrl:   strings.TrimRight(v.GetString(KeyUmamiApiUrl), "/"),
			ApiToken: v.GetString(KeyUmamiApiToken),
			User:     user,
			Password: v.GetString(KeyUmamiPassword),
		},
		Telegram: Telegram{
			ApiUrl:   strings.TrimRight(v.GetString(KeyTelegramApiUrl), "/"),
			BotToken: v.GetString(KeyTelegramBotToken),
			ChatId:   v.GetString(KeyTelegramChatId),
		},
		Sites: ParseSites(siteList),
		Period: Period{
			StartAt: strings.TrimSpace(v.GetString(KeyUmamiStartAt)),
			EndAt:   strings.TrimSpace(v.GetString(KeyUmamiEndAt)),
		},
		Schedule: v.GetString(KeySchedule),
		Debug:    v.GetBool(KeyDebug),
		SiteList: siteList,
	}
}

// ParseSites parses "id1:label1,id2,id3:label3". An entry without a label, or
// with an empty one, is labelled with its id. Entries without an id are dropped
// and a repeated id keeps its first occurrence.
func ParseSites(s string) []Site {
	var sites []Site
	seen := make(map[string]bool)

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		id, label := item, ""
		if before, after, found := strings.Cut(item, ":"); found {
			id = strings.TrimSpace(before)
			label = strings.TrimSpace(after)
		}
		if id == "" || seen[id] {
			continue
		}
		if label == "" {
			label = id
		}

		seen[id] = true
		sites = append(sites, Site{ID: id, Label: label})
	}
	return sites
}

// Validate checks that everything needed for a run is present. Password auth
// always has a username because UMAMI_USER defaults to admin.
func (c Config) Validate() error {
	var missing []string
	if c.Umami.ApiUrl == "" {
		missing = append(missing, KeyUmamiApiUrl)
	}
	if strings.TrimSpace(c.SiteList) == "" {
		missing = append(missing, KeyUmamiWebsiteId)
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, KeyTelegramBotToken)
	}
	if c.Telegram.ChatId == "" {
		missing = append(missing, KeyTelegramChatId)
	}
	if c.Umami.ApiToken == "" && c.Umami.Password == "" {
		missing = append(missing, KeyUmamiApiToken+" or "+KeyUmamiPassword)
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
