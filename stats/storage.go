package stats

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/tagcheck/logging"
)

const (
	monthLayout   = "2006-01"
	flushInterval = 5 * time.Minute
	visitorWindow = 24 * time.Hour
	topHosts      = 5
	maxHosts      = 1000
)

// MonthlyStats holds the service counters for one calendar month.
type MonthlyStats struct {
	Analyses        int            `json:"analyses"`
	Failures        int            `json:"failures"`
	FailuresByKind  map[string]int `json:"failures_by_kind,omitempty"`
	TotalDurationMs int64          `json:"total_duration_ms"`
	LastUpdated     time.Time      `json:"last_updated"`
}

// ErrorRate is the share of failed analyses as a percentage.
func (m MonthlyStats) ErrorRate() float64 {
	if m.Analyses == 0 {
		return 0
	}
	return float64(m.Failures) / float64(m.Analyses) * 100
}

// AverageDurationMs is the mean analysis latency in milliseconds.
func (m MonthlyStats) AverageDurationMs() float64 {
	if m.Analyses == 0 {
		return 0
	}
	return float64(m.TotalDurationMs) / float64(m.Analyses)
}

func (m MonthlyStats) clone() MonthlyStats {
	m.FailuresByKind = maps.Clone(m.FailuresByKind)
	return m
}

// Snapshot is the payload served on /api/statistics.
type Snapshot struct {
	Month             string         `json:"month"`
	UniqueVisitors24h int            `json:"uniqueVisitors24h"`
	TotalRequests     int            `json:"totalRequests"`
	ErrorRate         float64        `json:"errorRate"`
	AverageLoadTime   float64        `json:"averageLoadTime"`
	FailuresByKind    map[string]int `json:"failuresByKind,omitempty"`
	PopularHosts      map[string]int `json:"popularHosts,omitempty"`
	Months            []string       `json:"months,omitempty"`
}

// Storage keeps monthly counters in memory and, when given a data directory,
// periodically writes them to dataDir/stats.json. Visitors and popular hosts
// are never written to disk and age out after 24 hours.
type Storage struct {
	mutex     sync.RWMutex
	stats     map[string]*MonthlyStats // key: "YYYY-MM"
	hosts     *cache.Cache
	visitors  *cache.Cache
	filePath  string
	lastWrite time.Time
	logger    logrus.FieldLogger
	now       func() time.Time

	writeBuffer chan struct{}
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewStorage creates a statistics store. An empty dataDir keeps everything in
// memory.
func NewStorage(dataDir string, logger logrus.FieldLogger) (*Storage, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		hosts:       cache.New(visitorWindow, time.Hour),
		visitors:    cache.New(visitorWindow, time.Hour),
		logger:      logger,
		now:         time.Now,
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	if dataDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s.filePath = filepath.Join(dataDir, "stats.json")

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	s.wg.Add(1)
	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	loaded := make(map[string]*MonthlyStats)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for month, m := range loaded {
		if m != nil {
			s.stats[month] = m
		}
	}
	return nil
}

func (s *Storage) save() error {
	if s.filePath == "" {
		return nil
	}

	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Temp file plus rename.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	defer s.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.WithError(err).Warn("failed to persist statistics")
		}
	}
}

func (s *Storage) requestWrite() {
	if s.filePath == "" {
		return
	}
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// a write is already pending
	}
}

func (s *Storage) month() string {
	return s.now().Format(monthLayout)
}

// RecordAnalysis counts one analysis of rawURL. failureKind is empty for a
// successful analysis.
func (s *Storage) RecordAnalysis(rawURL string, took time.Duration, failureKind string) {
	now := s.now()
	month := now.Format(monthLayout)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	m, ok := s.stats[month]
	if !ok {
		m = &MonthlyStats{}
		s.stats[month] = m
	}

	m.Analyses++
	m.TotalDurationMs += took.Milliseconds()
	m.LastUpdated = now
	if failureKind != "" {
		m.Failures++
		if m.FailuresByKind == nil {
			m.FailuresByKind = make(map[string]int)
		}
		m.FailuresByKind[failureKind]++
	}

	if host := hostOf(rawURL); host != "" {
		s.countHost(host)
	}

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// countHost bumps the 24 hour counter for host. New hosts are dropped once
// maxHosts are being tracked. Callers hold s.mutex.
func (s *Storage) countHost(host string) {
	if _, err := s.hosts.IncrementInt(host, 1); err == nil {
		return
	}
	if s.hosts.ItemCount() >= maxHosts {
		s.hosts.DeleteExpired()
		if s.hosts.ItemCount() >= maxHosts {
			return
		}
	}
	s.hosts.SetDefault(host, 1)
}

// hostOf returns the lowercased host of rawURL, or "" when it has none.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// TrackVisitor records a client address as seen within the last 24 hours.
func (s *Storage) TrackVisitor(ip string) {
	if ip == "" {
		return
	}
	s.visitors.SetDefault(ip, struct{}{})
}

// UniqueVisitors returns the number of distinct clients seen in the last 24 hours.
func (s *Storage) UniqueVisitors() int {
	s.visitors.DeleteExpired()
	return s.visitors.ItemCount()
}

// GetCurrentStats returns statistics for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.month())
	return stats
}

// GetMonthlyStats returns statistics for a specific month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return stats.clone(), true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// PopularHosts returns up to n of the most analyzed hosts.
func (s *Storage) PopularHosts(n int) map[string]int {
	counts := make(map[string]int)
	for h, item := range s.hosts.Items() {
		if n, ok := item.Object.(int); ok {
			counts[h] = n
		}
	}

	hosts := make([]string, 0, len(counts))
	for h := range counts {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool {
		if counts[hosts[i]] != counts[hosts[j]] {
			return counts[hosts[i]] > counts[hosts[j]]
		}
		return hosts[i] < hosts[j]
	})
	if len(hosts) > n {
		hosts = hosts[:n]
	}

	out := make(map[string]int, len(hosts))
	for _, h := range hosts {
		out[h] = counts[h]
	}
	return out
}

// Snapshot summarises the current month. Failure kinds, popular hosts and the
// list of recorded months are only included when detailed is set.
func (s *Storage) Snapshot(detailed bool) Snapshot {
	current := s.GetCurrentStats()

	snap := Snapshot{
		Month:             s.month(),
		UniqueVisitors24h: s.UniqueVisitors(),
		TotalRequests:     current.Analyses,
		ErrorRate:         current.ErrorRate(),
		AverageLoadTime:   current.AverageDurationMs(),
	}
	if detailed {
		snap.FailuresByKind = current.FailuresByKind
		snap.PopularHosts = s.PopularHosts(topHosts)
		snap.Months = s.GetAllMonths()
	}
	return snap
}

// Cleanup removes statistics older than retainMonths months, counting the
// current month. Values below one keep only the current month.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	now := s.now()
	oldest := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -(retainMonths - 1), 0).
		Format(monthLayout)

	s.mutex.Lock()
	var removed []string
	for key := range s.stats {
		if key < oldest {
			delete(s.stats, key)
			removed = append(removed, key)
		}
	}
	s.mutex.Unlock()

	if len(removed) > 0 {
		sort.Strings(removed)
		s.logger.WithField("months", removed).Info("removed old statistics")
		s.requestWrite()
	}
}

// Close stops the background writer and writes a final snapshot.
func (s *Storage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		err = s.save()
	})
	return err
}
