/*
Copyright 2025 Ledgerline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/ledgerline/ledgerline/internal/apierror"
	"github.com/ledgerline/ledgerline/model"
)

const (
	tagConfigCacheKey = "finance_tag_config"
	tagConfigCacheTTL = 5 * time.Minute
)

// tagTablesMissing remembers, per process, that the classifier override
// tables do not exist so every job does not re-probe a database that was
// provisioned before they were introduced.
var tagTablesMissing atomic.Bool

// LoadFinanceTagConfig returns the classifier configuration: built-in
// defaults with operator overrides from the database merged on top. The
// merged result is cached; classification runs per transaction and must not
// hit the database each time.
func (d Datasource) LoadFinanceTagConfig(ctx context.Context) (*model.FinanceTagConfig, error) {
	ctx, span := otel.Tracer("statement.database").Start(ctx, "Loading finance tag config")
	defer span.End()

	if d.Cache != nil {
		cached := &model.FinanceTagConfig{}
		if err := d.Cache.Get(ctx, tagConfigCacheKey, cached); err == nil && len(cached.PvtKeywords) > 0 {
			return cached, nil
		}
	}

	cfg := model.DefaultFinanceTagConfig().Clone()
	if !tagTablesMissing.Load() {
		if err := d.mergeTagOverrides(ctx, cfg); err != nil {
			if isUndefinedTable(err) {
				tagTablesMissing.Store(true)
				logrus.Warn("finance tag override tables missing, using built-in defaults")
			} else {
				return nil, err
			}
		}
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, tagConfigCacheKey, cfg, tagConfigCacheTTL); err != nil {
			logrus.Warnf("failed to cache finance tag config: %v", err)
		}
	}
	return cfg, nil
}

func (d Datasource) mergeTagOverrides(ctx context.Context, cfg *model.FinanceTagConfig) error {
	if err := d.mergeKeywords(ctx, cfg); err != nil {
		return err
	}
	if err := d.mergeEntities(ctx, cfg); err != nil {
		return err
	}
	if err := d.mergeFalsePositives(ctx, cfg); err != nil {
		return err
	}
	return d.mergeThresholds(ctx, cfg)
}

func (d Datasource) mergeKeywords(ctx context.Context, cfg *model.FinanceTagConfig) error {
	rows, err := d.Conn.QueryContext(ctx, `SELECT keyword, kind, weight FROM finance_keywords`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			keyword, kind string
			weight        float64
		)
		if err := rows.Scan(&keyword, &kind, &weight); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan finance keyword", err)
		}
		switch kind {
		case "PVT":
			cfg.PvtKeywords[keyword] = weight
		case "BANK":
			cfg.BankKeywords[keyword] = weight
		}
	}
	return rows.Err()
}

func (d Datasource) mergeEntities(ctx context.Context, cfg *model.FinanceTagConfig) error {
	rows, err := d.Conn.QueryContext(ctx, `SELECT entity, kind FROM finance_entities`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entity, kind string
		if err := rows.Scan(&entity, &kind); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan finance entity", err)
		}
		switch kind {
		case "PVT":
			cfg.PvtEntities = append(cfg.PvtEntities, entity)
		case "BANK":
			cfg.BankEntities = append(cfg.BankEntities, entity)
		}
	}
	return rows.Err()
}

func (d Datasource) mergeFalsePositives(ctx context.Context, cfg *model.FinanceTagConfig) error {
	rows, err := d.Conn.QueryContext(ctx, `SELECT pattern FROM false_positive_patterns`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pattern string
		if err := rows.Scan(&pattern); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan false positive pattern", err)
		}
		cfg.FalsePositives = append(cfg.FalsePositives, pattern)
	}
	return rows.Err()
}

func (d Datasource) mergeThresholds(ctx context.Context, cfg *model.FinanceTagConfig) error {
	rows, err := d.Conn.QueryContext(ctx, `SELECT name, value FROM finance_tag_thresholds`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan finance tag threshold", err)
		}
		switch name {
		case "pvt_min_score":
			cfg.Thresholds.PvtMinScore = value
		case "bank_min_score":
			cfg.Thresholds.BankMinScore = value
		case "weekly_window_days":
			cfg.Thresholds.WeeklyWindowDays = int(value)
		case "weekly_min_hits":
			cfg.Thresholds.WeeklyMinHits = int(value)
		case "same_day_split_min_hits":
			cfg.Thresholds.SameDaySplitMinHits = int(value)
		case "small_ticket_max":
			cfg.Thresholds.SmallTicketMax = decimal.NewFromFloat(value)
		default:
			logrus.Warnf("unknown finance tag threshold %q ignored", name)
		}
	}
	return rows.Err()
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}
