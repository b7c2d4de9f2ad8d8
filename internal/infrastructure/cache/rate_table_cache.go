package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/logicalc/loancalc/internal/domain/model"
	"github.com/logicalc/loancalc/internal/domain/port"
	"github.com/logicalc/loancalc/internal/domain/valueobject"
)

const keyPrefix = "loancalc:ratetable:"

// DefaultTTL bounds how long a snapshot is served after an import that failed
// to invalidate it.
const DefaultTTL = 10 * time.Minute

// RateTableCache caches whole rate table snapshots in Redis in front of a
// port.RateTableProvider. Redis failures are logged and fall through to the
// provider. A nil client disables caching.
type RateTableCache struct {
	next   port.RateTableProvider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRateTableCache wraps next.
func NewRateTableCache(next port.RateTableProvider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *RateTableCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RateTableCache{next: next, client: client, ttl: ttl, logger: logger}
}

// generationKey holds a counter bumped by every Invalidate of one scope.
func generationKey(companyID, loanTypeID string) string {
	return keyPrefix + "gen:" + companyID + ":" + loanTypeID
}

// key names the snapshot of one scope stored under generation gen.
func key(companyID, loanTypeID string, gen int64) string {
	return fmt.Sprintf("%s%s:%s:%d", keyPrefix, companyID, loanTypeID, gen)
}

// Snapshot returns the cached snapshot, loading and storing it on a miss.
// The snapshot is stored under the generation read before loading, so a load
// that races an Invalidate lands under a generation no reader asks for.
func (c *RateTableCache) Snapshot(ctx context.Context, companyID, loanTypeID string) (model.RateTable, error) {
	if c.client == nil {
		return c.next.Snapshot(ctx, companyID, loanTypeID)
	}

	gen, err := c.client.Get(ctx, generationKey(companyID, loanTypeID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "rate table cache read failed",
			"key", generationKey(companyID, loanTypeID),
			"error", err,
		)
		return c.next.Snapshot(ctx, companyID, loanTypeID)
	}

	k := key(companyID, loanTypeID, gen)
	data, err := c.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		table, decodeErr := decodeSnapshot(data)
		if decodeErr == nil {
			return table, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable cached rate table",
			"key", k,
			"error", decodeErr,
		)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "rate table cache read failed",
			"key", k,
			"error", err,
		)
	}

	table, err := c.next.Snapshot(ctx, companyID, loanTypeID)
	if err != nil {
		return model.RateTable{}, err
	}
	if table.IsEmpty() {
		return table, nil
	}

	data, err = encodeSnapshot(table)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("encode rate table: %w", err)
	}
	if err := c.client.Set(ctx, k, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "rate table cache write failed",
			"key", k,
			"error", err,
		)
	}
	return table, nil
}

// Invalidate moves one scope to a new generation. Snapshots stored under
// older generations are never read again and expire with their TTL.
func (c *RateTableCache) Invalidate(ctx context.Context, companyID, loanTypeID string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, generationKey(companyID, loanTypeID)).Err(); err != nil {
		return fmt.Errorf("invalidate rate table: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

type snapshotRecord struct {
	CompanyID  string           `json:"company_id"`
	LoanTypeID string           `json:"loan_type_id"`
	Categories []categoryRecord `json:"categories"`
	Rows       []rowRecord      `json:"rows"`
}

type categoryRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Strategy  string `json:"strategy"`
	SumInRate bool   `json:"sum_in_rate"`
	Version   int    `json:"version"`
}

type rowRecord struct {
	CategoryID  string  `json:"category_id"`
	CreditScore int     `json:"credit_score"`
	ValueIndex  int     `json:"value_index"`
	Value       float64 `json:"value"`
}

func encodeSnapshot(table model.RateTable) ([]byte, error) {
	rec := snapshotRecord{CompanyID: table.CompanyID(), LoanTypeID: table.LoanTypeID()}
	for _, c := range table.Categories() {
		rec.Categories = append(rec.Categories, categoryRecord{
			ID:        c.ID,
			Name:      c.Name,
			Strategy:  c.Strategy.String(),
			SumInRate: c.SumInRate,
			Version:   c.Version,
		})
	}
	for _, r := range table.AllRows() {
		rec.Rows = append(rec.Rows, rowRecord{
			CategoryID:  r.CategoryID,
			CreditScore: r.CreditScoreThreshold,
			ValueIndex:  r.ValueIndexThreshold,
			Value:       r.AdditionValue,
		})
	}
	return json.Marshal(rec)
}

func decodeSnapshot(data []byte) (model.RateTable, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.RateTable{}, err
	}

	categories := make([]model.AdditionCategory, 0, len(rec.Categories))
	for _, c := range rec.Categories {
		strategy, err := valueobject.NewValueIndexStrategy(c.Strategy)
		if err != nil {
			return model.RateTable{}, err
		}
		categories = append(categories, model.AdditionCategory{
			ID:         c.ID,
			CompanyID:  rec.CompanyID,
			LoanTypeID: rec.LoanTypeID,
			Name:       c.Name,
			Strategy:   strategy,
			SumInRate:  c.SumInRate,
			Version:    c.Version,
		})
	}

	rows := make([]model.RateTableRow, 0, len(rec.Rows))
	for _, r := range rec.Rows {
		rows = append(rows, model.RateTableRow{
			CategoryID:           r.CategoryID,
			CreditScoreThreshold: r.CreditScore,
			ValueIndexThreshold:  r.ValueIndex,
			AdditionValue:        r.Value,
		})
	}
	return model.NewRateTable(rec.CompanyID, rec.LoanTypeID, categories, rows)
}
