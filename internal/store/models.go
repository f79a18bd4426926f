package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// HeaderRow is the persisted form of a transaction header.
type HeaderRow struct {
	SaleID        int64           `gorm:"column:sale_id;primaryKey;autoIncrement:false"`
	MarketID      int64           `gorm:"column:market_id;not null;index"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(14,2);not null"`
	SoldAt        time.Time       `gorm:"column:sold_at;not null;index"`
	TotalQuantity decimal.Decimal `gorm:"column:total_quantity;type:decimal(12,2);not null"`
}

// LineRow is the persisted form of a line item.
type LineRow struct {
	SaleItemID int64           `gorm:"column:sale_item_id;primaryKey;autoIncrement"`
	SaleID     int64           `gorm:"column:sale_id;not null;index"`
	ProductID  int64           `gorm:"column:product_id;not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:decimal(12,2);not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
}

func headerRows(headers []types.TransactionHeader) []HeaderRow {
	rows := make([]HeaderRow, len(headers))
	for i, h := range headers {
		rows[i] = HeaderRow{
			SaleID:        h.ID,
			MarketID:      h.MarketID,
			TotalAmount:   h.TotalAmount,
			SoldAt:        h.Timestamp,
			TotalQuantity: h.TotalQuantity,
		}
	}
	return rows
}

func lineRows(lines []types.LineItem) []LineRow {
	rows := make([]LineRow, len(lines))
	for i, l := range lines {
		rows[i] = LineRow{
			SaleID:    l.TransactionID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return rows
}

func (r HeaderRow) header() types.TransactionHeader {
	return types.TransactionHeader{
		ID:            r.SaleID,
		MarketID:      r.MarketID,
		TotalAmount:   r.TotalAmount,
		Timestamp:     r.SoldAt.UTC(),
		TotalQuantity: r.TotalQuantity,
	}
}

func (r LineRow) line() types.LineItem {
	return types.LineItem{
		TransactionID: r.SaleID,
		ProductID:     r.ProductID,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
	}
}
