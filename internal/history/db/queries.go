package db

import (
	"context"
)

const insertRun = `
INSERT INTO run (id, started_at, finished_at, retailers, extracted, dropped)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertRunParams struct {
	ID         string
	StartedAt  int64
	FinishedAt int64
	Retailers  string
	Extracted  int64
	Dropped    int64
}

func (q *Queries) InsertRun(ctx context.Context, arg InsertRunParams) error {
	_, err := q.db.ExecContext(ctx, insertRun,
		arg.ID,
		arg.StartedAt,
		arg.FinishedAt,
		arg.Retailers,
		arg.Extracted,
		arg.Dropped,
	)
	return err
}

const insertRunItem = `
INSERT INTO run_item (run_id, position, name, price, url, retailer, category)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertRunItemParams struct {
	RunID    string
	Position int64
	Name     string
	Price    string
	Url      string
	Retailer string
	Category string
}

func (q *Queries) InsertRunItem(ctx context.Context, arg InsertRunItemParams) error {
	_, err := q.db.ExecContext(ctx, insertRunItem,
		arg.RunID,
		arg.Position,
		arg.Name,
		arg.Price,
		arg.Url,
		arg.Retailer,
		arg.Category,
	)
	return err
}

const getRecentRuns = `
SELECT id, started_at, finished_at, retailers, extracted, dropped FROM run
ORDER BY started_at DESC, rowid DESC
LIMIT ?
`

func (q *Queries) GetRecentRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, getRecentRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.FinishedAt,
			&i.Retailers,
			&i.Extracted,
			&i.Dropped,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRunItems = `
SELECT run_id, position, name, price, url, retailer, category FROM run_item
WHERE run_id = ?
ORDER BY position
`

func (q *Queries) GetRunItems(ctx context.Context, runID string) ([]RunItem, error) {
	rows, err := q.db.QueryContext(ctx, getRunItems, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RunItem
	for rows.Next() {
		var i RunItem
		if err := rows.Scan(
			&i.RunID,
			&i.Position,
			&i.Name,
			&i.Price,
			&i.Url,
			&i.Retailer,
			&i.Category,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRunsBefore = `
DELETE FROM run WHERE started_at < ?
`

func (q *Queries) DeleteRunsBefore(ctx context.Context, startedAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRunsBefore, startedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRunItemsBefore = `
DELETE FROM run_item WHERE run_id IN (SELECT id FROM run WHERE started_at < ?)
`

func (q *Queries) DeleteRunItemsBefore(ctx context.Context, startedAt int64) error {
	_, err := q.db.ExecContext(ctx, deleteRunItemsBefore, startedAt)
	return err
}
