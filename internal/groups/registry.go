// Package groups loads the market-group registry file. The file is read once
// at startup and never watched: group wiring changes require a restart so a
// running pass can never observe a half-applied registry.
package groups

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"skew/internal/engine"
	"skew/internal/logger"
	"skew/internal/pkg/symbol"
)

// 中文说明：
// groups.yaml 先过 JSON Schema 校验再反序列化，配置里写错字段名或类型
// 直接在启动时报错，而不是静默跑出错误的仓位目标。

const groupsSchema = `{
  "type": "object",
  "required": ["groups"],
  "properties": {
    "groups": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "markets"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "enabled": {"type": "boolean"},
          "price_spread_cushion": {"type": "number", "minimum": 0},
          "baseline_notional": {"type": "number"},
          "funding_multiplier": {"type": "number"},
          "min_trade_value": {"type": "number", "minimum": 0},
          "max_trade_amount_per_cycle": {"type": "number", "minimum": 0},
          "markets": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["symbol", "venue"],
              "properties": {
                "symbol": {"type": "string", "minLength": 1},
                "venue": {"type": "string", "enum": ["binance", "gate"]},
                "side": {"type": "string", "enum": ["auto", "long", "short"]},
                "primary": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

type fileConfig struct {
	Groups []engine.GroupConfig `yaml:"groups"`
}

// Load reads, validates and normalizes the registry file. Disabled groups are
// dropped here so callers only ever see runnable groups.
func Load(path string) ([]engine.GroupConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("groups registry requires path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groups file failed: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("groups file %s: %w", filepath.Base(path), err)
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse groups file failed: %w", err)
	}

	out := make([]engine.GroupConfig, 0, len(cfg.Groups))
	seen := make(map[string]bool)
	for _, g := range cfg.Groups {
		g, err := normalizeGroup(g)
		if err != nil {
			return nil, err
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("duplicate group name: %s", g.Name)
		}
		seen[g.Name] = true
		if !g.Enabled {
			logger.Infof("group %s disabled, skipping", g.Name)
			continue
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("groups file %s: no enabled groups", filepath.Base(path))
	}
	logger.Infof("groups registry loaded %d groups from %s", len(out), filepath.Base(path))
	logger.InfoBlock(describeGroups(out))
	return out, nil
}

func describeGroups(cfgs []engine.GroupConfig) string {
	var b strings.Builder
	for _, g := range cfgs {
		fmt.Fprintf(&b, "%s: baseline=%.2f cushion=%.2f max/cycle=%.2f markets=%d\n",
			g.Name, g.BaselineNotional, g.PriceSpreadCushion, g.MaxTradeAmountPerCycle, len(g.Markets))
	}
	return b.String()
}

func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("groups.json", strings.NewReader(groupsSchema)); err != nil {
		return err
	}
	schema, err := compiler.Compile("groups.json")
	if err != nil {
		return err
	}
	return schema.Validate(normalizeYAML(doc))
}

// normalizeYAML converts yaml.v3's map[string]any tree into the
// json-compatible shapes jsonschema expects (it chokes on yaml integers
// where the schema says "number" only via json round-trip semantics).
func normalizeYAML(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func normalizeGroup(g engine.GroupConfig) (engine.GroupConfig, error) {
	g.Name = strings.TrimSpace(g.Name)
	primaries := 0
	for i, m := range g.Markets {
		m.Symbol = symbol.Normalize(strings.TrimSpace(m.Symbol))
		if m.Symbol == "" {
			return g, fmt.Errorf("group %s: unparseable symbol in market %d", g.Name, i)
		}
		if m.Side == "" {
			m.Side = engine.HintAuto
		}
		if m.Primary {
			primaries++
		}
		g.Markets[i] = m
	}
	if primaries > 1 {
		return g, fmt.Errorf("group %s: more than one primary market", g.Name)
	}
	for i, a := range g.Markets {
		for _, b := range g.Markets[i+1:] {
			if a.Venue == b.Venue && a.Symbol == b.Symbol {
				return g, fmt.Errorf("group %s: duplicate market %s on %s", g.Name, a.Symbol, a.Venue)
			}
		}
	}
	if g.MinTradeValue < 0 || g.MaxTradeAmountPerCycle < 0 {
		return g, fmt.Errorf("group %s: negative trade limits", g.Name)
	}
	return g, nil
}
