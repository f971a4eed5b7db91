// storage/trade.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
	"github.com/iqbalbaharum/constant-product-pool/internal/utils"
)

var tradeColumns = utils.Columns(&types.Trade{})

type TradeStorage struct {
	client *sql.DB
}

func NewTradeStorage(db *sql.DB) *TradeStorage {
	return &TradeStorage{client: db}
}

func (s *TradeStorage) Set(ctx context.Context, trade *types.Trade) error {
	query := `INSERT INTO ` + TABLE_NAME_TRADE + ` ` + utils.BuildInsertQuery(trade)

	if _, err := s.client.ExecContext(ctx, query, utils.UnpackStruct(trade)...); err != nil {
		return fmt.Errorf("%s: %w", ErrExecuteStatement, err)
	}

	return nil
}

func (s *TradeStorage) Search(ctx context.Context, filter types.MySQLFilter) ([]types.Trade, error) {
	query, values, err := utils.BuildSearchQuery(TABLE_NAME_TRADE, tradeColumns, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.client.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrExecuteQuery, err)
	}
	defer rows.Close()

	trades := []types.Trade{}
	for rows.Next() {
		var (
			trade                types.Trade
			pool, mint, customer string
		)

		if err := rows.Scan(
			&pool,
			&mint,
			&customer,
			&trade.Action,
			&trade.QuoteAmount,
			&trade.BaseAmount,
			&trade.Fee,
			&trade.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrScanData, err)
		}

		if trade.Pool, err = parseKey(pool); err != nil {
			return nil, err
		}
		if trade.Mint, err = parseKey(mint); err != nil {
			return nil, err
		}
		if trade.Customer, err = parseKey(customer); err != nil {
			return nil, err
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrRetrieveRows, err)
	}

	return trades, nil
}

func (s *TradeStorage) DeleteAll(ctx context.Context) error {
	if _, err := s.client.ExecContext(ctx, `DELETE FROM `+TABLE_NAME_TRADE); err != nil {
		return fmt.Errorf("%s: %w", ErrExecuteStatement, err)
	}

	return nil
}

func parseKey(s string) (*solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrScanData, err)
	}
	return &key, nil
}
