package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

func decimalOrNil(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

const (
	aggregateBatchSize = 200
	pivotBatchSize     = 500
	ledgerBatchSize    = 500
)

// RecordMonthlyAggregates batch-inserts the recomputed month rollups.
func (d Datasource) RecordMonthlyAggregates(ctx context.Context, versionID string, aggs []*model.MonthlyAggregate) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving monthly aggregates to db")
	defer span.End()

	for start := 0; start < len(aggs); start += aggregateBatchSize {
		end := start + aggregateBatchSize
		if end > len(aggs) {
			end = len(aggs)
		}
		if err := d.insertAggregateBatch(ctx, versionID, aggs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertAggregateBatch(ctx context.Context, versionID string, aggs []*model.MonthlyAggregate) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, agg := range aggs {
		base := i * 6
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args,
			versionID, agg.MonthKey, agg.TxnCount,
			agg.CreditTotal.StringFixed(2), agg.DebitTotal.StringFixed(2), agg.NetFlow.StringFixed(2),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO aggregates_monthly (version_id, month_key, txn_count, credit_total, debit_total, net_flow)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := d.Conn.ExecContext(ctx, query, args...); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record monthly aggregates", err)
	}
	return nil
}

// RecordPivots batch-inserts the (month, category, type) pivot buckets.
func (d Datasource) RecordPivots(ctx context.Context, versionID string, pivots []*model.PivotBucket) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving pivots to db")
	defer span.End()

	for start := 0; start < len(pivots); start += pivotBatchSize {
		end := start + pivotBatchSize
		if end > len(pivots) {
			end = len(pivots)
		}
		if err := d.insertPivotBatch(ctx, versionID, pivots[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertPivotBatch(ctx context.Context, versionID string, pivots []*model.PivotBucket) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, pivot := range pivots {
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			versionID, pivot.MonthKey, pivot.Category, pivot.TxnType,
			pivot.SumDebit.StringFixed(2), pivot.SumCredit.StringFixed(2),
			pivot.CountDebit, pivot.CountCredit,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO pivots (version_id, month_key, category, txn_type, sum_dr, sum_cr, count_dr, count_cr)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := d.Conn.ExecContext(ctx, query, args...); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record pivots", err)
	}
	return nil
}

// RecordLedgerRows batch-inserts the continuity ledger of a version.
func (d Datasource) RecordLedgerRows(ctx context.Context, rows []*model.LedgerRow) error {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Saving continuity ledger to db")
	defer span.End()

	for start := 0; start < len(rows); start += ledgerBatchSize {
		end := start + ledgerBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := d.insertLedgerBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (d Datasource) insertLedgerBatch(ctx context.Context, rows []*model.LedgerRow) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, row := range rows {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args,
			row.VersionID, row.RowIndex, row.TxnDate,
			decimalOrNil(row.ExpectedBalance), decimalOrNil(row.ReportedBalance), decimalOrNil(row.Delta),
			row.ContinuityOK,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO statement_ledger (version_id, row_index, txn_date, expected_balance, reported_balance, delta, continuity_ok)
		VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := d.Conn.ExecContext(ctx, query, args...); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record continuity ledger", err)
	}
	return nil
}
