package config

import (
	"fmt"
	"strings"

	"skew/internal/scheduler"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Venues.validate(); err != nil {
		return err
	}
	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.App.GroupsPath) == "" {
		return fmt.Errorf("app.groups_path cannot be empty")
	}
	return nil
}

func (v *VenuesConfig) validate() error {
	if !v.Binance.Enabled && !v.Gate.Enabled {
		return fmt.Errorf("venues: at least one venue must be enabled")
	}
	if v.Binance.Enabled {
		if strings.TrimSpace(v.Binance.APIKey) == "" || strings.TrimSpace(v.Binance.APISecret) == "" {
			return fmt.Errorf("venues.binance enabled but api_key/api_secret missing")
		}
	}
	if v.Gate.Enabled {
		if strings.TrimSpace(v.Gate.APIKey) == "" || strings.TrimSpace(v.Gate.APISecret) == "" {
			return fmt.Errorf("venues.gate enabled but api_key/api_secret missing")
		}
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if _, ok := scheduler.ParseIntervalDuration(e.Interval); !ok {
		return fmt.Errorf("engine.interval invalid: %q", e.Interval)
	}
	if e.MaxAttempts < 1 {
		return fmt.Errorf("engine.max_attempts must be >= 1")
	}
	if e.RetryBackoffSeconds < 0 {
		return fmt.Errorf("engine.retry_backoff_seconds must be >= 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if !n.Telegram.Enabled {
		return nil
	}
	if strings.TrimSpace(n.Telegram.BotToken) == "" || strings.TrimSpace(n.Telegram.ChatID) == "" {
		return fmt.Errorf("notify.telegram enabled but bot_token/chat_id missing")
	}
	return nil
}
