package storage

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndRecentQueries(t *testing.T) {
	forEachEngine(t, func(t *testing.T, c Conn) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		for i, q := range []string{"first", "second", "third"} {
			_, err := RecordQuery(ctx, c, QueryRecord{
				CreatedAt:  base.Add(time.Duration(i) * time.Second),
				Question:   q,
				IntentType: "all_employees",
				RowCount:   i,
				Answer:     "answer " + q,
			})
			if err != nil {
				t.Fatalf("RecordQuery: %v", err)
			}
		}

		got, err := RecentQueries(ctx, c, 2)
		if err != nil {
			t.Fatalf("RecentQueries: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		if got[0].Question != "third" || got[1].Question != "second" {
			t.Errorf("order = [%s %s], want [third second]", got[0].Question, got[1].Question)
		}
		if got[0].Parameter != "none" {
			t.Errorf("Parameter = %q, want none", got[0].Parameter)
		}
		if got[0].RowCount != 2 {
			t.Errorf("RowCount = %d, want 2", got[0].RowCount)
		}
		if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
			t.Errorf("CreatedAt = %v", got[0].CreatedAt)
		}
		if got[0].ID == "" {
			t.Error("ID not assigned")
		}
	})
}

func TestRecentQueries_Empty(t *testing.T) {
	c := openTestConn(t, "modernc", ":memory:")
	got, err := RecentQueries(context.Background(), c, 10)
	if err != nil {
		t.Fatalf("RecentQueries: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records, want 0", len(got))
	}
}

func TestPruneQueries(t *testing.T) {
	forEachEngine(t, func(t *testing.T, c Conn) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, q := range []string{"a", "b", "c", "d"} {
			if _, err := RecordQuery(ctx, c, QueryRecord{CreatedAt: base.Add(time.Duration(i) * time.Minute), Question: q}); err != nil {
				t.Fatalf("RecordQuery: %v", err)
			}
		}

		n, err := PruneQueries(ctx, c, 2)
		if err != nil {
			t.Fatalf("PruneQueries: %v", err)
		}
		if n != 2 {
			t.Errorf("removed %d, want 2", n)
		}
		got, err := RecentQueries(ctx, c, 10)
		if err != nil {
			t.Fatalf("RecentQueries: %v", err)
		}
		if len(got) != 2 || got[0].Question != "d" || got[1].Question != "c" {
			t.Errorf("remaining = %+v, want [d c]", got)
		}

		if n, err := PruneQueries(ctx, c, 2); err != nil || n != 0 {
			t.Errorf("second prune = (%d, %v), want (0, nil)", n, err)
		}
		if _, err := PruneQueries(ctx, c, -1); err == nil {
			t.Error("negative keep should fail")
		}
	})
}
