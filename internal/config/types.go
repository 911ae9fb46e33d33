package config

import "strings"

// Config 是 Skew 的主配置载体。
type Config struct {
	App    AppConfig    `toml:"app"`
	Venues VenuesConfig `toml:"venues"`
	Engine EngineConfig `toml:"engine"`
	Report ReportConfig `toml:"report"`
	Notify NotifyConfig `toml:"notify"`
}

type AppConfig struct {
	Env        string `toml:"env"`
	LogLevel   string `toml:"log_level"`
	HTTPAddr   string `toml:"http_addr"`
	LogPath    string `toml:"log_path"`
	GroupsPath string `toml:"groups_path"`
}

type VenuesConfig struct {
	Binance BinanceConfig `toml:"binance"`
	Gate    GateConfig    `toml:"gate"`
}

type BinanceConfig struct {
	Enabled     bool        `toml:"enabled"`
	APIKey      string      `toml:"api_key"`
	APISecret   string      `toml:"api_secret"`
	RESTBaseURL string      `toml:"rest_base_url"`
	Proxy       ProxyConfig `toml:"proxy"`
}

type GateConfig struct {
	Enabled     bool        `toml:"enabled"`
	APIKey      string      `toml:"api_key"`
	APISecret   string      `toml:"api_secret"`
	RESTBaseURL string      `toml:"rest_base_url"`
	Settle      string      `toml:"settle"`
	Proxy       ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
}

func (p *ProxyConfig) normalize() {
	if p == nil {
		return
	}
	p.RESTURL = strings.TrimSpace(p.RESTURL)
}

// EngineConfig 控制调仓周期与下单重试。
type EngineConfig struct {
	Interval            string `toml:"interval"` // e.g. "30s", "5m"
	RunImmediately      bool   `toml:"run_immediately"`
	MaxAttempts         int    `toml:"max_attempts"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
	BreakerThreshold    int    `toml:"breaker_threshold"`
}

type ReportConfig struct {
	StorePath     string `toml:"store_path"`
	SheetEndpoint string `toml:"sheet_endpoint"`
	SheetToken    string `toml:"sheet_token"`
	MaxOutcomes   int    `toml:"max_outcomes"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
