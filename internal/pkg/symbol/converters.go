package symbol

import "strings"

// BinanceConverter renders "SOL/USDT" as "SOLUSDT".
type BinanceConverter struct{}

func (BinanceConverter) ToExchange(internal string) string {
	s := strings.ToUpper(strings.TrimSpace(internal))
	return strings.ReplaceAll(s, "/", "")
}

func (BinanceConverter) FromExchange(raw string) string {
	return Parse(raw).Internal()
}

func (BinanceConverter) Format() Format { return FormatBinance }

// GateConverter renders "SOL/USDT" as the contract name "SOL_USDT".
type GateConverter struct{}

func (GateConverter) ToExchange(internal string) string {
	s := strings.ToUpper(strings.TrimSpace(internal))
	if s == "" {
		return ""
	}
	return strings.ReplaceAll(s, "/", "_")
}

func (GateConverter) FromExchange(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "/") {
		return s
	}
	if strings.Contains(s, "_") {
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 {
			return parts[0] + "/" + parts[1]
		}
	}
	return Parse(s).Internal()
}

func (GateConverter) Format() Format { return FormatGate }

var (
	Binance = BinanceConverter{}
	Gate    = GateConverter{}
)
