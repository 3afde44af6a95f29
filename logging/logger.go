package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

const visitorWindow = 24 * time.Hour

// Statistics represents the collected request statistics
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> Last Visit Time
	AnalysisRequests int                  `json:"analysisRequests"` // Total number of analysis requests
	SaveRequests     int                  `json:"saveRequests"`     // Total number of save requests
	ErrorCount       int                  `json:"errorCount"`       // Requests answered with a 4xx/5xx
	Sources          map[string]int       `json:"sources"`          // Input kind -> Count
	AverageLoadTime  float64              `json:"averageLoadTime"`  // Average handling time in milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	RequestCount     int                  `json:"requestCount"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
	now   func() time.Time
}

// New creates statistics backed by the file at path. An empty path keeps
// the statistics in memory only.
func New(path string) *Statistics {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		Sources:        make(map[string]int),
		path:           path,
		now:            time.Now,
	}

	if err := s.Load(); err != nil {
		fmt.Printf("Could not load existing statistics: %v\n", err)
	}
	return s
}

// TrackVisitor records a unique visitor
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// TrackAnalysis records an analysis request for the given input kind
func (s *Statistics) TrackAnalysis(source string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	if source != "" {
		s.Sources[source]++
	}
	s.trackRequest(loadTime, hasError)
}

// TrackSave records a request to persist an analysis
func (s *Statistics) TrackSave(loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.SaveRequests++
	s.trackRequest(loadTime, hasError)
}

func (s *Statistics) trackRequest(loadTime float64, hasError bool) {
	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

// TotalRequests returns the number of tracked analysis and save requests
func (s *Statistics) TotalRequests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.RequestCount
}

// uniqueVisitorsCount returns the number of visitors in the last 24 hours.
// Callers must hold the read lock.
func (s *Statistics) uniqueVisitorsCount() int {
	count := 0
	cutoff := s.now().Add(-visitorWindow)

	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}

	return count
}

// topSources returns the n most used input kinds. Callers must hold the read lock.
func (s *Statistics) topSources(n int) map[string]int {
	keys := make([]string, 0, len(s.Sources))
	for k := range s.Sources {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.Sources[keys[i]] == s.Sources[keys[j]] {
			return keys[i] < keys[j]
		}
		return s.Sources[keys[i]] > s.Sources[keys[j]]
	})

	result := make(map[string]int)
	for i, k := range keys {
		if i >= n {
			break
		}
		result[k] = s.Sources[k]
	}
	return result
}

// errorRate returns the error rate as a percentage. Callers must hold the read lock.
func (s *Statistics) errorRate() float64 {
	if s.RequestCount == 0 {
		return 0
	}

	return (float64(s.ErrorCount) / float64(s.RequestCount)) * 100
}

// PruneVisitors forgets visitors not seen within the last 24 hours
func (s *Statistics) PruneVisitors() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := s.now().Add(-visitorWindow)
	removed := 0
	for ip, lastVisit := range s.UniqueVisitors {
		if !lastVisit.After(cutoff) {
			delete(s.UniqueVisitors, ip)
			removed++
		}
	}
	return removed
}

// Save persists the statistics to the backing file. The file is replaced
// atomically so a crash mid-write keeps the previous snapshot.
func (s *Statistics) Save() error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = s.now()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("could not replace statistics file: %w", err)
	}

	return nil
}

// Load reads the statistics from the backing file
func (s *Statistics) Load() error {
	if s.path == "" {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not an error if file doesn't exist yet
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.Sources == nil {
		s.Sources = make(map[string]int)
	}

	return nil
}

// Summary returns a snapshot of the statistics. Source breakdown is only
// included in development mode.
func (s *Statistics) Summary(devMode bool) map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	summary := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitorsCount(),
		"analysisRequests":  s.AnalysisRequests,
		"saveRequests":      s.SaveRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if devMode {
		summary["sources"] = s.topSources(5)
	}
	return summary
}
