package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 中文说明：
// Sheet 上报器：每轮调仓结束后，将持仓行与成交记录推送到外部表格服务。

type Sheet struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewSheet(endpoint, token string) *Sheet {
	return &Sheet{Endpoint: endpoint, Token: token, Client: &http.Client{Timeout: 15 * time.Second}}
}

type sheetPayload struct {
	At        string        `json:"at"`
	Positions []PositionRow `json:"positions"`
	Txs       []TxRecord    `json:"txs"`
}

// WriteReport 推送一轮报表（带最多 3 次重试）
func (s *Sheet) WriteReport(ctx context.Context, rows []PositionRow, txs []TxRecord) error {
	if s.Endpoint == "" {
		return fmt.Errorf("sheet 配置不完整")
	}
	body, _ := json.Marshal(sheetPayload{
		At:        time.Now().UTC().Format(time.RFC3339),
		Positions: rows,
		Txs:       txs,
	})

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.Token)
		}
		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			if !sheetBackoff(ctx, i) {
				return ctx.Err()
			}
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("sheet status=%d", resp.StatusCode)
		if !sheetBackoff(ctx, i) {
			return ctx.Err()
		}
	}
	return lastErr
}

func sheetBackoff(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
