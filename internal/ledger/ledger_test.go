package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func at(s string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return ts
}

// backends runs fn against every ledger implementation.
func backends(t *testing.T, fn func(t *testing.T, l Ledger)) {
	t.Run("csv", func(t *testing.T) {
		l, err := OpenCSV(filepath.Join(t.TempDir(), "attendance.csv"), WithLocation(time.UTC))
		if err != nil {
			t.Fatalf("OpenCSV() error = %v", err)
		}
		defer l.Close()
		fn(t, l)
	})
	t.Run("sqlite", func(t *testing.T) {
		l, err := OpenSQLite(filepath.Join(t.TempDir(), "attendance.db"), WithLocation(time.UTC))
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		defer l.Close()
		fn(t, l)
	})
}

func TestLedger_IdempotentPerDay(t *testing.T) {
	backends(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()

		first, err := l.Record(ctx, "Alice", at("2024-01-01T08:00:00"))
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		second, err := l.Record(ctx, "Alice", at("2024-01-01T17:30:00"))
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}

		if first != Created || second != AlreadyExists {
			t.Errorf("outcomes = %v, %v; want created, already_exists", first, second)
		}

		records, err := l.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		want := Record{Name: "Alice", Date: "2024-01-01", Time: "08:00:00"}
		if len(records) != 1 || records[0] != want {
			t.Errorf("Snapshot() = %v, want [%v]", records, want)
		}
	})
}

func TestLedger_NewDayCreatesNewRecord(t *testing.T) {
	backends(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()

		for _, ts := range []string{"2024-01-01T08:00:00", "2024-01-02T08:05:00"} {
			out, err := l.Record(ctx, "Alice", at(ts))
			if err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			if out != Created {
				t.Errorf("Record(%s) = %v, want created", ts, out)
			}
		}

		records, _ := l.Snapshot(ctx)
		if len(records) != 2 {
			t.Errorf("len(Snapshot()) = %d, want 2", len(records))
		}
	})
}

func TestLedger_SnapshotPreservesOrder(t *testing.T) {
	backends(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		names := []string{"Carol", "Alice", "Bob"}
		for i, name := range names {
			if _, err := l.Record(ctx, name, at("2024-03-10T09:00:00").Add(time.Duration(i)*time.Minute)); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		records, err := l.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		for i, name := range names {
			if records[i].Name != name {
				t.Errorf("records[%d].Name = %q, want %q", i, records[i].Name, name)
			}
		}
		if records[2].Time != "09:02:00" {
			t.Errorf("records[2].Time = %q, want 09:02:00", records[2].Time)
		}
	})
}

func TestLedger_ConcurrentRecordCreatesOnce(t *testing.T) {
	backends(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < 20; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				out, err := l.Record(ctx, "Alice", at("2024-01-01T08:00:00").Add(time.Duration(i)*time.Second))
				if err != nil {
					t.Errorf("Record() error = %v", err)
					return
				}
				if out == Created {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if created != 1 {
			t.Errorf("created = %d, want 1", created)
		}
		records, _ := l.Snapshot(ctx)
		if len(records) != 1 {
			t.Errorf("len(Snapshot()) = %d, want 1", len(records))
		}
	})
}

func TestLedger_EmptyNameRejected(t *testing.T) {
	backends(t, func(t *testing.T, l Ledger) {
		_, err := l.Record(context.Background(), "", at("2024-01-01T08:00:00"))

		var ledgerErr *LedgerError
		if !errors.As(err, &ledgerErr) {
			t.Fatalf("expected *LedgerError, got %v", err)
		}
	})
}

func TestNewRecord_UsesLocation(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	rec := NewRecord("Alice", at("2024-01-01T23:30:00"), prague)

	if rec.Date != "2024-01-02" || rec.Time != "00:30:00" {
		t.Errorf("NewRecord() = %+v, want 2024-01-02 00:30:00", rec)
	}
}

func TestFilterByDate(t *testing.T) {
	records := []Record{
		{Name: "Alice", Date: "2024-01-01", Time: "08:00:00"},
		{Name: "Bob", Date: "2024-01-02", Time: "08:00:00"},
		{Name: "Carol", Date: "2024-01-01", Time: "09:00:00"},
	}

	got := FilterByDate(records, "2024-01-01")
	if len(got) != 2 || got[0].Name != "Alice" || got[1].Name != "Carol" {
		t.Errorf("FilterByDate() = %v", got)
	}
	if len(FilterByDate(records, "")) != 3 {
		t.Error("empty date should return all records")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		backend Backend
		path    string
		wantErr bool
	}{
		{"default is csv", "", filepath.Join(dir, "a.csv"), false},
		{"csv", BackendCSV, filepath.Join(dir, "b.csv"), false},
		{"sqlite", "SQLite", filepath.Join(dir, "c.db"), false},
		{"unknown", "xlsx", filepath.Join(dir, "d.xlsx"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Open(tt.backend, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				l.Close()
			}
		})
	}
}
