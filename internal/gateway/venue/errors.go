package venue

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	gateapi "github.com/gateio/gateapi-go/v7"
	"github.com/tidwall/gjson"
)

// ErrMarketNotFound marks a symbol the venue does not know. A missing market
// is a configuration error: the group's cycle is skipped, never retried.
var ErrMarketNotFound = errors.New("market not found on venue")

type ErrorClass int

const (
	// ClassTerminal ends the cycle for the group immediately (rejections,
	// insufficient margin, bad params).
	ClassTerminal ErrorClass = iota
	// ClassTransient is the resubmittable class: the same priced order may be
	// retried after a fixed backoff (the stale-reference / timestamp-drift /
	// server-hiccup family).
	ClassTransient
	// ClassNotFound wraps ErrMarketNotFound.
	ClassNotFound
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "TRANSIENT"
	case ClassNotFound:
		return "NOT_FOUND"
	default:
		return "TERMINAL"
	}
}

// binance 可重试错误码：内部错误/断连、时间戳漂移、超时、服务过载。
var transientBinanceCodes = map[int64]bool{
	-1001: true, // DISCONNECTED / internal error
	-1003: true, // TOO_MANY_REQUESTS
	-1007: true, // TIMEOUT
	-1021: true, // INVALID_TIMESTAMP (recvWindow drift, resubmittable)
}

var transientGateLabels = map[string]bool{
	"SERVER_ERROR":      true,
	"TOO_MANY_REQUESTS": true,
	"REQUEST_EXPIRED":   true, // stale signed request, safe to resubmit
}

// Classify maps an adapter error onto the engine's retry taxonomy.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTerminal
	}
	if errors.Is(err, ErrMarketNotFound) {
		return ClassNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return classifyBinance(apiErr)
	}
	var gateErr gateapi.GateAPIError
	if errors.As(err, &gateErr) {
		if transientGateLabels[strings.ToUpper(strings.TrimSpace(gateErr.Label))] {
			return ClassTransient
		}
		return ClassTerminal
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}

	return classifyRawPayload(err.Error())
}

func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}

func classifyBinance(apiErr *common.APIError) ErrorClass {
	if apiErr == nil {
		return ClassTerminal
	}
	if transientBinanceCodes[apiErr.Code] {
		return ClassTransient
	}
	return ClassTerminal
}

// classifyRawPayload is the fallback for SDK paths that flatten the venue
// response into the error string. When a JSON body is embedded we pull the
// code/label out of it instead of substring-matching the whole message.
func classifyRawPayload(msg string) ErrorClass {
	if start := strings.Index(msg, "{"); start >= 0 {
		body := msg[start:]
		if gjson.Valid(body) {
			parsed := gjson.Parse(body)
			if code := parsed.Get("code"); code.Exists() {
				if transientBinanceCodes[code.Int()] {
					return ClassTransient
				}
			}
			if label := parsed.Get("label"); label.Exists() {
				if transientGateLabels[strings.ToUpper(label.String())] {
					return ClassTransient
				}
			}
			return ClassTerminal
		}
	}
	lower := strings.ToLower(msg)
	for _, marker := range []string{"timeout", "connection reset", "temporarily unavailable", "stale"} {
		if strings.Contains(lower, marker) {
			return ClassTransient
		}
	}
	return ClassTerminal
}
