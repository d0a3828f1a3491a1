package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	storage.now = fixedClock(time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC))

	t.Run("RecordAnalysis", func(t *testing.T) {
		storage.RecordAnalysis("https://Example.com/a", 120*time.Millisecond, "")
		storage.RecordAnalysis("https://example.com/b", 80*time.Millisecond, "timeout")
		storage.RecordAnalysis("ftp://other.example/x", 0, "invalid_scheme")

		stats := storage.GetCurrentStats()
		if stats.Analyses != 3 {
			t.Errorf("Expected 3 analyses, got %d", stats.Analyses)
		}
		if stats.Failures != 2 {
			t.Errorf("Expected 2 failures, got %d", stats.Failures)
		}
		if stats.FailuresByKind["timeout"] != 1 || stats.FailuresByKind["invalid_scheme"] != 1 {
			t.Errorf("Unexpected failure breakdown: %v", stats.FailuresByKind)
		}
		if stats.TotalDurationMs != 200 {
			t.Errorf("Expected 200ms total, got %d", stats.TotalDurationMs)
		}
	})

	t.Run("Snapshot", func(t *testing.T) {
		storage.TrackVisitor("203.0.113.1")
		storage.TrackVisitor("203.0.113.1")
		storage.TrackVisitor("203.0.113.2")

		public := storage.Snapshot(false)
		if public.Month != "2026-03" {
			t.Errorf("Expected month 2026-03, got %s", public.Month)
		}
		if public.UniqueVisitors24h != 2 {
			t.Errorf("Expected 2 visitors, got %d", public.UniqueVisitors24h)
		}
		if public.TotalRequests != 3 {
			t.Errorf("Expected 3 requests, got %d", public.TotalRequests)
		}
		if public.FailuresByKind != nil || public.PopularHosts != nil {
			t.Error("Breakdown should only be shown when detailed")
		}

		detailed := storage.Snapshot(true)
		if detailed.PopularHosts["example.com"] != 2 {
			t.Errorf("Expected example.com counted twice, got %v", detailed.PopularHosts)
		}
		if detailed.FailuresByKind["timeout"] != 1 {
			t.Errorf("Unexpected failure breakdown: %v", detailed.FailuresByKind)
		}
		if len(detailed.Months) != 1 || detailed.Months[0] != "2026-03" {
			t.Errorf("Expected months [2026-03], got %v", detailed.Months)
		}
		if public.Months != nil {
			t.Error("Months should only be shown when detailed")
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		storage2, err := NewStorage(tempDir, nil)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}
		defer storage2.Close()

		stats, ok := storage2.GetMonthlyStats("2026-03")
		if !ok {
			t.Fatal("Expected 2026-03 after reload")
		}
		if stats.Analyses != 3 {
			t.Errorf("Expected 3 analyses after reload, got %d", stats.Analyses)
		}
		if storage2.UniqueVisitors() != 0 {
			t.Error("Visitors should not be persisted")
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}
		if info.Size() > 1024 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}
	})
}

func TestErrorRateAndAverage(t *testing.T) {
	var empty MonthlyStats
	if empty.ErrorRate() != 0 || empty.AverageDurationMs() != 0 {
		t.Error("Empty stats should report zero rates")
	}

	m := MonthlyStats{Analyses: 4, Failures: 1, TotalDurationMs: 1000}
	if m.ErrorRate() != 25 {
		t.Errorf("Expected 25%% error rate, got %f", m.ErrorRate())
	}
	if m.AverageDurationMs() != 250 {
		t.Errorf("Expected 250ms average, got %f", m.AverageDurationMs())
	}
}

func TestCleanup(t *testing.T) {
	storage, err := NewStorage("", nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	storage.now = fixedClock(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC))

	for _, month := range []string{"2025-10", "2025-11", "2025-12", "2026-01"} {
		storage.stats[month] = &MonthlyStats{Analyses: 1}
	}

	storage.Cleanup(2)

	months := storage.GetAllMonths()
	if len(months) != 2 || months[0] != "2026-01" || months[1] != "2025-12" {
		t.Errorf("Expected [2026-01 2025-12], got %v", months)
	}

	storage.Cleanup(0)
	if months := storage.GetAllMonths(); len(months) != 1 || months[0] != "2026-01" {
		t.Errorf("Expected only the current month, got %v", months)
	}
}

func TestPopularHostsOrdering(t *testing.T) {
	storage, _ := NewStorage("", nil)
	for i := 0; i < 3; i++ {
		storage.RecordAnalysis("https://a.example/", 0, "")
	}
	storage.RecordAnalysis("https://b.example/", 0, "")
	storage.RecordAnalysis("https://c.example/", 0, "")
	storage.RecordAnalysis("::not a url", 0, "invalid_scheme")

	top := storage.PopularHosts(2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 hosts, got %v", top)
	}
	if top["a.example"] != 3 || top["b.example"] != 1 {
		t.Errorf("Unexpected top hosts: %v", top)
	}
}

func TestLoadToleratesEmptyFiles(t *testing.T) {
	for name, content := range map[string]string{
		"null":       "null",
		"empty":      "{}",
		"null month": `{"2026-02": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "stats.json"), []byte(content), 0o644); err != nil {
				t.Fatalf("Failed to write stats file: %v", err)
			}

			storage, err := NewStorage(dir, nil)
			if err != nil {
				t.Fatalf("Failed to create storage: %v", err)
			}
			defer storage.Close()
			storage.now = fixedClock(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))

			storage.RecordAnalysis("https://example.com/", time.Millisecond, "")
			if got := storage.GetCurrentStats().Analyses; got != 1 {
				t.Errorf("Expected 1 analysis, got %d", got)
			}
		})
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stats.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write stats file: %v", err)
	}
	if _, err := NewStorage(dir, nil); err == nil {
		t.Fatal("Expected a load error")
	}
}

func TestHostTrackingIsBounded(t *testing.T) {
	storage, _ := NewStorage("", nil)
	for i := 0; i < maxHosts+50; i++ {
		storage.RecordAnalysis(fmt.Sprintf("https://h%d.example/", i), 0, "")
	}
	if got := storage.hosts.ItemCount(); got != maxHosts {
		t.Errorf("Expected %d tracked hosts, got %d", maxHosts, got)
	}

	// Hosts already tracked keep counting.
	storage.RecordAnalysis("https://h0.example/", 0, "")
	if top := storage.PopularHosts(1); top["h0.example"] != 2 {
		t.Errorf("Expected h0.example counted twice, got %v", top)
	}
}

func TestMemoryOnlyStorageWritesNothing(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	storage, _ := NewStorage("", nil)
	storage.RecordAnalysis("https://example.com", time.Millisecond, "")
	if err := storage.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files, found %d", len(entries))
	}
}

func TestConcurrentAccess(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				storage.RecordAnalysis("https://example.com", time.Millisecond, "")
				storage.TrackVisitor("198.51.100.7")
				storage.Snapshot(true)
			}
		}()
	}
	wg.Wait()

	if got := storage.GetCurrentStats().Analyses; got != 1000 {
		t.Errorf("Expected 1000 analyses, got %d", got)
	}
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (testing.T.Chdir is unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
