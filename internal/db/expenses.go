package db

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/internal/metrics"
	"github.com/khetsense/khetsense-api/pkg/types"
)

func (db *DB) GetExpensesByFarmID(farmID uuid.UUID) ([]types.Expense, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("expenses_by_farm").Observe(time.Since(start).Seconds())
	}()

	query := db.Data.Query(`
SELECT id, expense_date, category, amount, description
FROM expenses
WHERE farm_id = ?
`, gocql.UUID(farmID)).WithContext(ctx)

	var results []types.Expense
	iter := query.Iter()

	var id gocql.UUID
	var category, description string
	var amount float64
	var expenseDate time.Time

	for iter.Scan(&id, &expenseDate, &category, &amount, &description) {
		results = append(results, types.Expense{
			ID:          uuid.UUID(id),
			FarmID:      farmID,
			ExpenseDate: expenseDate,
			Category:    types.ExpenseCategory(category),
			Amount:      amount,
			Description: description,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

func (db *DB) GetExpensesByFarmIDs(farmIDs []uuid.UUID) ([]types.Expense, error) {
	var all []types.Expense
	for _, id := range farmIDs {
		expenses, err := db.GetExpensesByFarmID(id)
		if err != nil {
			return nil, err
		}
		all = append(all, expenses...)
	}
	return all, nil
}

func (db *DB) InsertExpense(e *types.Expense) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbWriteLatencySeconds.WithLabelValues("insert_expense").Observe(time.Since(start).Seconds())
	}()

	e.ID = uuid.New()

	return db.Data.Query(`
INSERT INTO expenses (farm_id, id, expense_date, category, amount, description)
VALUES (?, ?, ?, ?, ?, ?)
`, gocql.UUID(e.FarmID), gocql.UUID(e.ID), e.ExpenseDate, string(e.Category),
		e.Amount, e.Description).WithContext(ctx).Exec()
}
