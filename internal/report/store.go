package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PositionRowModel persists one reported position row per pass.
type PositionRowModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	GroupName     string         `gorm:"column:group_name;index"`
	Symbol        string         `gorm:"column:symbol"`
	Venue         string         `gorm:"column:venue"`
	Pnl           float64        `gorm:"column:pnl"`
	Value         float64        `gorm:"column:value"`
	AdjustedValue float64        `gorm:"column:adjusted_value"`
	OrderNotional float64        `gorm:"column:order_notional"`
	Price         float64        `gorm:"column:price"`
	Baseline      float64        `gorm:"column:baseline"`
	Placed        bool           `gorm:"column:placed"`
	RawData       datatypes.JSON `gorm:"column:raw_data;type:TEXT"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (PositionRowModel) TableName() string { return "position_rows" }

// TxRecordModel persists one submission attempt chain.
type TxRecordModel struct {
	ID            int64  `gorm:"column:id;primaryKey"`
	Venue         string `gorm:"column:venue"`
	Symbol        string `gorm:"column:symbol"`
	Signature     string `gorm:"column:signature"`
	Error         string `gorm:"column:error"`
	CreatedAtUnix int64  `gorm:"column:created_at;index"`
}

func (TxRecordModel) TableName() string { return "tx_records" }

// Store implements report persistence using Gorm + SQLite.
type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("report store: 数据库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&PositionRowModel{}, &TxRecordModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db, nowFn: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Sink = (*Store)(nil)

// WriteReport appends the pass to both tables in one transaction.
func (s *Store) WriteReport(ctx context.Context, rows []PositionRow, txs []TxRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	now := s.nowFn().Unix()
	rowModels := make([]PositionRowModel, 0, len(rows))
	for _, row := range rows {
		raw, _ := json.Marshal(row)
		rowModels = append(rowModels, PositionRowModel{
			GroupName:     row.Group,
			Symbol:        row.Symbol,
			Venue:         row.Venue,
			Pnl:           row.Pnl,
			Value:         row.Value,
			AdjustedValue: row.AdjustedValue,
			OrderNotional: row.OrderNotional,
			Price:         row.Price,
			Baseline:      row.Baseline,
			Placed:        row.Placed,
			RawData:       datatypes.JSON(raw),
			CreatedAtUnix: now,
		})
	}
	txModels := make([]TxRecordModel, 0, len(txs))
	for _, tx := range txs {
		txModels = append(txModels, TxRecordModel{
			Venue:         tx.Venue,
			Symbol:        tx.Symbol,
			Signature:     tx.Signature,
			Error:         tx.Error,
			CreatedAtUnix: now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if len(rowModels) > 0 {
			if err := db.Create(&rowModels).Error; err != nil {
				return err
			}
		}
		if len(txModels) > 0 {
			if err := db.Create(&txModels).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecentRows returns the latest persisted position rows, newest first.
func (s *Store) RecentRows(ctx context.Context, limit int) ([]PositionRowModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []PositionRowModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecentTxs returns the latest persisted transaction records, newest first.
func (s *Store) RecentTxs(ctx context.Context, limit int) ([]TxRecordModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []TxRecordModel
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
