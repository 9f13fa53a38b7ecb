package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// QueryRecord is one answered question.
type QueryRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Question   string    `json:"question"`
	IntentType string    `json:"intent_type"`
	Parameter  string    `json:"parameter"`
	RowCount   int       `json:"row_count"`
	Answer     string    `json:"answer"`
}

// RecordQuery stores r, assigning ID and CreatedAt when unset.
func RecordQuery(ctx context.Context, c Conn, r QueryRecord) (QueryRecord, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Parameter == "" {
		r.Parameter = "none"
	}
	_, err := c.Execute(ctx,
		`INSERT INTO query_log (id, created_at, question, intent_type, parameter, row_count, answer)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(timeLayout), r.Question, r.IntentType, r.Parameter, r.RowCount, r.Answer,
	)
	if err != nil {
		return r, fmt.Errorf("recording query: %w", err)
	}
	return r, nil
}

// RecentQueries returns up to limit records, newest first.
func RecentQueries(ctx context.Context, c Conn, limit int) ([]QueryRecord, error) {
	rows, err := c.Execute(ctx,
		`SELECT id, created_at, question, intent_type, parameter, row_count, answer
		 FROM query_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}

	out := make([]QueryRecord, 0, len(rows))
	for _, row := range rows {
		var r QueryRecord
		r.ID, _ = row.String("id")
		r.Question, _ = row.String("question")
		r.IntentType, _ = row.String("intent_type")
		r.Parameter, _ = row.String("parameter")
		r.Answer, _ = row.String("answer")
		n, _ := row.Int("row_count")
		r.RowCount = int(n)

		ts, _ := row.String("created_at")
		if r.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// PruneQueries deletes all but the newest keep records and reports how many
// were removed.
func PruneQueries(ctx context.Context, c Conn, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("pruning queries: negative keep %d", keep)
	}
	rs, err := c.Execute(ctx,
		`DELETE FROM query_log WHERE id NOT IN (
		   SELECT id FROM query_log ORDER BY created_at DESC LIMIT ?
		 )`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning queries: %w", err)
	}
	if len(rs) == 0 {
		return 0, nil
	}
	n, _ := rs[0].Int("affected_rows")
	return n, nil
}
