package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTrackAnalysisUpdatesAverages(t *testing.T) {
	s := New("")

	s.TrackAnalysis("text", 10, false)
	s.TrackAnalysis("html", 30, true)
	s.TrackSave(20, false)

	if s.AnalysisRequests != 2 {
		t.Errorf("Expected 2 analysis requests, got %d", s.AnalysisRequests)
	}
	if s.SaveRequests != 1 {
		t.Errorf("Expected 1 save request, got %d", s.SaveRequests)
	}
	if s.TotalRequests() != 3 {
		t.Errorf("Expected 3 total requests, got %d", s.TotalRequests())
	}
	if s.AverageLoadTime != 20 {
		t.Errorf("Expected average load time 20, got %f", s.AverageLoadTime)
	}

	summary := s.Summary(false)
	rate, ok := summary["errorRate"].(float64)
	if !ok {
		t.Fatalf("Expected float error rate, got %T", summary["errorRate"])
	}
	if rate < 33.3 || rate > 33.4 {
		t.Errorf("Expected error rate of one third, got %f", rate)
	}
}

func TestSummaryHidesSourcesOutsideDevMode(t *testing.T) {
	s := New("")
	s.TrackAnalysis("text", 1, false)

	if _, ok := s.Summary(false)["sources"]; ok {
		t.Error("Sources should not be exposed outside dev mode")
	}

	sources, ok := s.Summary(true)["sources"].(map[string]int)
	if !ok {
		t.Fatal("Sources should be exposed in dev mode")
	}
	if sources["text"] != 1 {
		t.Errorf("Expected 1 text analysis, got %d", sources["text"])
	}
}

func TestTopSourcesOrdersByCount(t *testing.T) {
	s := New("")
	for i := 0; i < 3; i++ {
		s.TrackAnalysis("url", 1, false)
	}
	s.TrackAnalysis("text", 1, false)
	s.TrackAnalysis("html", 1, false)

	top := s.topSources(2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 sources, got %v", top)
	}
	if top["url"] != 3 {
		t.Errorf("Expected url to lead with 3, got %v", top)
	}
	// Ties break alphabetically
	if _, ok := top["html"]; !ok {
		t.Errorf("Expected html as second source, got %v", top)
	}
}

func TestUniqueVisitorsWindow(t *testing.T) {
	s := New("")
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return now.Add(-48 * time.Hour) }
	s.TrackVisitor("10.0.0.1")
	s.now = func() time.Time { return now }
	s.TrackVisitor("10.0.0.2")
	s.TrackVisitor("10.0.0.2")

	if got := s.Summary(false)["uniqueVisitors24h"]; got != 1 {
		t.Errorf("Expected 1 recent visitor, got %v", got)
	}
	if removed := s.PruneVisitors(); removed != 1 {
		t.Errorf("Expected 1 pruned visitor, got %d", removed)
	}
	if len(s.UniqueVisitors) != 1 {
		t.Errorf("Expected 1 remaining visitor, got %d", len(s.UniqueVisitors))
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")

	s := New(path)
	s.TrackVisitor("10.0.0.1")
	s.TrackAnalysis("text", 12, false)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := New(path)
	if loaded.AnalysisRequests != 1 {
		t.Errorf("Expected 1 analysis request after load, got %d", loaded.AnalysisRequests)
	}
	if loaded.Sources["text"] != 1 {
		t.Errorf("Expected text source after load, got %v", loaded.Sources)
	}
	if loaded.AverageLoadTime != 12 {
		t.Errorf("Expected average load time 12 after load, got %f", loaded.AverageLoadTime)
	}
	if loaded.LastPersisted.IsZero() {
		t.Error("Expected last persisted time to be loaded")
	}
}

func TestSaveReplacesFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statistics.json")

	s := New(path)
	s.TrackAnalysis("url", 5, false)
	if err := s.Save(); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	s.TrackAnalysis("url", 5, false)
	if err := s.Save(); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be renamed away, stat returned %v", err)
	}
	if loaded := New(path); loaded.AnalysisRequests != 2 {
		t.Errorf("Expected 2 analysis requests after reload, got %d", loaded.AnalysisRequests)
	}
}

func TestSaveKeepsPreviousSnapshotOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statistics.json")

	s := New(path)
	s.TrackAnalysis("text", 1, false)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A directory in place of the temp file makes the write fail
	if err := os.Mkdir(path+".tmp", 0755); err != nil {
		t.Fatalf("Failed to block temp file: %v", err)
	}
	s.TrackAnalysis("text", 1, false)
	if err := s.Save(); err == nil {
		t.Fatal("Expected save to fail")
	}

	if loaded := New(path); loaded.AnalysisRequests != 1 {
		t.Errorf("Expected previous snapshot with 1 request, got %d", loaded.AnalysisRequests)
	}
}
