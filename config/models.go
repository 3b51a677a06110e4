package config

type Config struct {
	Umami    Umami
	Telegram Telegram
	Sites    []Site
	Period   Period
	Schedule string
	Debug    bool

	// raw site list as configured, kept for validation
	SiteList string
}

type Umami struct {
	ApiUrl   string
	ApiToken string
	User     string
	Password string
}

type Telegram struct {
	ApiUrl   string
	BotToken string
	ChatId   string
}

type Site struct {
	ID    string
	Label string
}

type Period struct {
	StartAt string
	EndAt   string
}

// HasStaticToken reports whether login can be skipped.
func (c Config) HasStaticToken() bool {
	return c.Umami.ApiToken != ""
}
