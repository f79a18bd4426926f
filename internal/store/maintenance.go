package store

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// deleteBatch bounds the ids in one IN list.
const deleteBatch = 1000

// =============================================================================
// TRUNCATE
// =============================================================================

// Truncate empties the line table, then the header table, with referential
// checks disabled for the duration and restored afterwards.
func (s *Store) Truncate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	lines, headers := clause.Table{Name: s.lines}, clause.Table{Name: s.headers}

	var err error
	switch s.dialect {
	case DialectPostgres:
		err = db.Exec("TRUNCATE TABLE ?, ?", lines, headers).Error

	case DialectMySQL:
		// Session variables are per connection, so everything runs on one.
		err = db.Connection(func(conn *gorm.DB) (err error) {
			if err := conn.Exec("SET FOREIGN_KEY_CHECKS = 0").Error; err != nil {
				return err
			}
			defer func() {
				if rerr := conn.Exec("SET FOREIGN_KEY_CHECKS = 1").Error; rerr != nil && err == nil {
					err = rerr
				}
			}()
			if err := conn.Exec("TRUNCATE TABLE ?", lines).Error; err != nil {
				return err
			}
			return conn.Exec("TRUNCATE TABLE ?", headers).Error
		})

	case DialectSQLite:
		err = db.Connection(func(conn *gorm.DB) (err error) {
			if err := conn.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
				return err
			}
			defer func() {
				if rerr := conn.Exec("PRAGMA foreign_keys = ON").Error; rerr != nil && err == nil {
					err = rerr
				}
			}()
			if err := conn.Exec("DELETE FROM ?", lines).Error; err != nil {
				return err
			}
			return conn.Exec("DELETE FROM ?", headers).Error
		})

	default:
		return fmt.Errorf("truncate: %w: %q", ErrUnsupportedDialect, s.dialect)
	}
	if err != nil {
		return classify("truncate", err)
	}

	s.log.Info().Str("headers", s.headers).Str("lines", s.lines).Msg("output tables truncated")
	return nil
}

// =============================================================================
// READ BACK
// =============================================================================

// LoadDataset reads every header and line back in id order.
func (s *Store) LoadDataset(ctx context.Context) (*types.Dataset, error) {
	db := s.db.WithContext(ctx)

	var headers []HeaderRow
	if err := db.Table(s.headers).Order("sale_id").Find(&headers).Error; err != nil {
		return nil, classify("read "+s.headers, err)
	}
	var lines []LineRow
	if err := db.Table(s.lines).Order("sale_id, sale_item_id").Find(&lines).Error; err != nil {
		return nil, classify("read "+s.lines, err)
	}

	ds := &types.Dataset{
		Headers: make([]types.TransactionHeader, len(headers)),
		Lines:   make([]types.LineItem, len(lines)),
	}
	for i, h := range headers {
		ds.Headers[i] = h.header()
	}
	for i, l := range lines {
		ds.Lines[i] = l.line()
	}
	return ds, nil
}

// =============================================================================
// PRUNE
// =============================================================================

// PruneResult reports what Prune deleted.
type PruneResult struct {
	Headers int64
	Lines   int64
}

// Prune deletes a random percent of the stored sales together with their
// lines, in one transaction. The choice of sales is driven by rng.
func (s *Store) Prune(ctx context.Context, percent float64, rng *rand.Rand) (PruneResult, error) {
	var res PruneResult
	if percent <= 0 {
		return res, nil
	}
	if percent > 100 {
		percent = 100
	}

	var ids []int64
	db := s.db.WithContext(ctx)
	if err := db.Table(s.headers).Order("sale_id").Pluck("sale_id", &ids).Error; err != nil {
		return res, classify("prune: list sales", err)
	}

	k := int(math.Round(float64(len(ids)) * percent / 100))
	if k == 0 {
		return res, nil
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	victims := ids[:k]
	sort.Slice(victims, func(i, j int) bool { return victims[i] < victims[j] })

	err := db.Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(victims); start += deleteBatch {
			batch := victims[start:min(start+deleteBatch, len(victims))]

			del := tx.Table(s.lines).Where("sale_id IN ?", batch).Delete(&LineRow{})
			if del.Error != nil {
				return del.Error
			}
			res.Lines += del.RowsAffected

			del = tx.Table(s.headers).Where("sale_id IN ?", batch).Delete(&HeaderRow{})
			if del.Error != nil {
				return del.Error
			}
			res.Headers += del.RowsAffected
		}
		return nil
	})
	if err != nil {
		return PruneResult{}, classify("prune", err)
	}

	s.log.Info().
		Float64("percent", percent).
		Int64("headers", res.Headers).
		Int64("lines", res.Lines).
		Msg("sales pruned")
	return res, nil
}
