package venue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adshao/go-binance/v2/common"
	gateapi "github.com/gateio/gateapi-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestClassifyBinanceCodes(t *testing.T) {
	cases := []struct {
		code int64
		want ErrorClass
	}{
		{-1021, ClassTransient},
		{-1001, ClassTransient},
		{-1007, ClassTransient},
		{-2019, ClassTerminal}, // margin is insufficient
		{-4164, ClassTerminal}, // order notional too small
	}
	for _, tc := range cases {
		err := &common.APIError{Code: tc.code, Message: "x"}
		assert.Equal(t, tc.want, Classify(err), "code %d", tc.code)
	}
}

func TestClassifyGateLabels(t *testing.T) {
	assert.Equal(t, ClassTransient, Classify(gateapi.GateAPIError{Label: "SERVER_ERROR"}))
	assert.Equal(t, ClassTransient, Classify(gateapi.GateAPIError{Label: "REQUEST_EXPIRED"}))
	assert.Equal(t, ClassTerminal, Classify(gateapi.GateAPIError{Label: "BALANCE_NOT_ENOUGH"}))
}

func TestClassifyWrappedSentinels(t *testing.T) {
	err := fmt.Errorf("group SOL/USDT: %w", ErrMarketNotFound)
	assert.Equal(t, ClassNotFound, Classify(err))
	assert.Equal(t, ClassTransient, Classify(context.DeadlineExceeded))
	assert.Equal(t, ClassTerminal, Classify(errors.New("order would immediately match")))
}

func TestClassifyEmbeddedJSONPayload(t *testing.T) {
	// Some SDK paths stringify the response body into the error message.
	transient := errors.New(`binance api: {"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`)
	assert.True(t, IsTransient(transient))

	terminal := errors.New(`binance api: {"code":-2019,"msg":"Margin is insufficient."}`)
	assert.False(t, IsTransient(terminal))

	gate := errors.New(`gate api: {"label":"SERVER_ERROR","message":"try again later"}`)
	assert.True(t, IsTransient(gate))
}

func TestClassifyTextFallback(t *testing.T) {
	assert.True(t, IsTransient(errors.New("net/http: request canceled (timeout)")))
	assert.True(t, IsTransient(errors.New("submit failed: stale reference block")))
	assert.False(t, IsTransient(errors.New("post only order rejected")))
}
