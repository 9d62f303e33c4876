// Package history keeps a row for every completed run and the items it found.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/history/db"
	"time"

	"github.com/shopspring/decimal"
)

const report_db_query = "db.query"

type API interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

type Run struct {
	ID         string                  `json:"id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Retailers  []catalog.Retailer      `json:"retailers"`
	Extracted  int                     `json:"extracted"`
	Dropped    int                     `json:"dropped"`
	Items      []catalog.ValidatedItem `json:"items"`
}

type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API
}

func NewStore(database *sql.DB, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(tel)
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewScopedAPI("history", tel),
	}
}

func joinRetailers(retailers []catalog.Retailer) string {
	parts := make([]string, len(retailers))
	for i, r := range retailers {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

func splitRetailers(value string) []catalog.Retailer {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]catalog.Retailer, len(parts))
	for i, p := range parts {
		out[i] = catalog.Retailer(p)
	}
	return out
}

// Record stores a run and its items in a single transaction.
func (s Store) Record(ctx context.Context, run Run) error {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return err
	}
	defer discard()

	err = tx.InsertRun(ctx, db.InsertRunParams{
		ID:         run.ID,
		StartedAt:  run.StartedAt.UnixMilli(),
		FinishedAt: run.FinishedAt.UnixMilli(),
		Retailers:  joinRetailers(run.Retailers),
		Extracted:  int64(run.Extracted),
		Dropped:    int64(run.Dropped),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "InsertRun", run.ID)
		return err
	}

	for i, item := range run.Items {
		err = tx.InsertRunItem(ctx, db.InsertRunItemParams{
			RunID:    run.ID,
			Position: int64(i),
			Name:     item.Name,
			Price:    item.Price.String(),
			Url:      item.URL,
			Retailer: string(item.Retailer),
			Category: item.Category.String(),
		})
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "InsertRunItem", run.ID, i)
			return err
		}
	}

	return commit()
}

func (s Store) toItem(row db.RunItem) catalog.ValidatedItem {
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		s.tel.ReportWarning(report_db_query, fmt.Errorf("parse price: %w", err), row.RunID, row.Position)
	}
	category, err := catalog.ParseCategory(row.Category)
	if err != nil {
		s.tel.ReportWarning(report_db_query, err, row.RunID, row.Position)
	}
	return catalog.ValidatedItem{
		Candidate: catalog.Candidate{
			Name:     row.Name,
			Price:    price,
			URL:      row.Url,
			Retailer: catalog.Retailer(row.Retailer),
			Category: category,
			InStock:  true,
		},
		Validated: true,
	}
}

// Recent returns up to `limit` runs, most recent first.
func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.qry.GetRecentRuns(ctx, int64(limit))
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetRecentRuns")
		return nil, err
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		itemRows, err := s.qry.GetRunItems(ctx, row.ID)
		if err != nil {
			s.tel.ReportBroken(report_db_query, err, "GetRunItems", row.ID)
			return nil, err
		}
		items := make([]catalog.ValidatedItem, len(itemRows))
		for i, itemRow := range itemRows {
			items[i] = s.toItem(itemRow)
		}

		runs = append(runs, Run{
			ID:         row.ID,
			StartedAt:  time.UnixMilli(row.StartedAt),
			FinishedAt: time.UnixMilli(row.FinishedAt),
			Retailers:  splitRetailers(row.Retailers),
			Extracted:  int(row.Extracted),
			Dropped:    int(row.Dropped),
			Items:      items,
		})
	}
	return runs, nil
}

// Prune deletes every run started before `before`, it returns the number of
// deleted runs.
func (s Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		s.tel.ReportBroken(report_db_query, fmt.Errorf("make tx: %w", err))
		return 0, err
	}
	defer discard()

	err = tx.DeleteRunItemsBefore(ctx, before.UnixMilli())
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteRunItemsBefore")
		return 0, err
	}
	deleted, err := tx.DeleteRunsBefore(ctx, before.UnixMilli())
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "DeleteRunsBefore")
		return 0, err
	}
	return deleted, commit()
}
