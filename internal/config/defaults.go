package config

import "strings"

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppHTTPAddr       = ":9992"
	defaultAppLogPath        = "/data/logs/skew-live.log"
	defaultGroupsPath        = "configs/groups.yaml"
	defaultBinanceREST       = "https://fapi.binance.com"
	defaultGateREST          = "https://api.gateio.ws/api/v4"
	defaultGateSettle        = "usdt"
	defaultEngineInterval    = "30s"
	defaultEngineAttempts    = 3
	defaultEngineBackoffSecs = 1
	defaultBreakerThreshold  = 5
	defaultReportStorePath   = "/data/live/skew-report.db"
	defaultReportOutcomes    = 200
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Venues.applyDefaults(keys)
	c.Engine.applyDefaults(keys)
	c.Report.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.groups_path", &a.GroupsPath, defaultGroupsPath),
	)
}

func (v *VenuesConfig) applyDefaults(keys keySet) {
	if v == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("venues.binance.rest_base_url", &v.Binance.RESTBaseURL, defaultBinanceREST),
		stringFieldDefault("venues.gate.rest_base_url", &v.Gate.RESTBaseURL, defaultGateREST),
		stringFieldDefault("venues.gate.settle", &v.Gate.Settle, defaultGateSettle),
	)
	v.Binance.Proxy.normalize()
	v.Gate.Proxy.normalize()
}

func (e *EngineConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("engine.interval", &e.Interval, defaultEngineInterval),
		fieldDefault{
			key:   "engine.max_attempts",
			need:  func() bool { return e.MaxAttempts <= 0 },
			apply: func() { e.MaxAttempts = defaultEngineAttempts },
		},
		fieldDefault{
			key:   "engine.retry_backoff_seconds",
			need:  func() bool { return e.RetryBackoffSeconds <= 0 },
			apply: func() { e.RetryBackoffSeconds = defaultEngineBackoffSecs },
		},
		fieldDefault{
			key:   "engine.breaker_threshold",
			need:  func() bool { return e.BreakerThreshold <= 0 },
			apply: func() { e.BreakerThreshold = defaultBreakerThreshold },
		},
	)
}

func (r *ReportConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("report.store_path", &r.StorePath, defaultReportStorePath),
		fieldDefault{
			key:   "report.max_outcomes",
			need:  func() bool { return r.MaxOutcomes <= 0 },
			apply: func() { r.MaxOutcomes = defaultReportOutcomes },
		},
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
