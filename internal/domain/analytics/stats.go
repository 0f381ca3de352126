package analytics

import (
	"math"
	"sort"
)

type Summary struct {
	TotalSessions     int   `json:"totalSessions"`
	CompletedSessions int   `json:"completedSessions"`
	CompletionRate    int   `json:"completionRate"`
	AvgTotalTimeMs    int64 `json:"avgTotalTimeMs"`
	MedianTotalTimeMs int64 `json:"medianTotalTimeMs"`
}

type ScreenStat struct {
	ScreenID         string `json:"screenId"`
	Views            int    `json:"views"`
	DropOffs         int    `json:"dropOffs"`
	DropOffRate      int    `json:"dropOffRate"`
	AvgDurationMs    int64  `json:"avgDurationMs"`
	MedianDurationMs int64  `json:"medianDurationMs"`
}

type FunnelStep struct {
	ScreenID    string `json:"screenId"`
	ScreenIndex int    `json:"screenIndex"`
	Reached     int    `json:"reached"`
	Percentage  int    `json:"percentage"`
}

type Stats struct {
	Summary     Summary      `json:"summary"`
	ScreenStats []ScreenStat `json:"screenStats"`
	Funnel      []FunnelStep `json:"funnel"`
}

// ComputeStats aggregates sessions over the screens in screenOrder. Visits
// to screens outside screenOrder are ignored. An abandoned session counts
// as a drop-off on its last screen only.
func ComputeStats(sessions []Session, screenOrder []string) Stats {
	total := len(sessions)
	completed := 0
	var totals []int64

	type acc struct {
		views     int
		dropOffs  int
		durations []int64
	}
	byScreen := make(map[string]*acc, len(screenOrder))
	for _, id := range screenOrder {
		byScreen[id] = &acc{}
	}

	for i := range sessions {
		s := &sessions[i]
		if s.Completed {
			completed++
		}
		if d := s.totalTime(); d > 0 {
			totals = append(totals, d)
		}
		for _, v := range s.Screens {
			a, ok := byScreen[v.ScreenID]
			if !ok {
				continue
			}
			a.views++
			if v.DurationMs > 0 {
				a.durations = append(a.durations, v.DurationMs)
			}
		}
		if !s.Completed && s.LastScreenID != "" {
			if a, ok := byScreen[s.LastScreenID]; ok {
				a.dropOffs++
			}
		}
	}

	out := Stats{
		Summary: Summary{
			TotalSessions:     total,
			CompletedSessions: completed,
			CompletionRate:    percent(completed, total),
			AvgTotalTimeMs:    mean(totals),
			MedianTotalTimeMs: median(totals),
		},
		ScreenStats: make([]ScreenStat, 0, len(screenOrder)),
		Funnel:      make([]FunnelStep, 0, len(screenOrder)),
	}
	for i, id := range screenOrder {
		a := byScreen[id]
		out.ScreenStats = append(out.ScreenStats, ScreenStat{
			ScreenID:         id,
			Views:            a.views,
			DropOffs:         a.dropOffs,
			DropOffRate:      percent(a.dropOffs, a.views),
			AvgDurationMs:    mean(a.durations),
			MedianDurationMs: median(a.durations),
		})
		out.Funnel = append(out.Funnel, FunnelStep{
			ScreenID:    id,
			ScreenIndex: i,
			Reached:     a.views,
			Percentage:  percent(a.views, total),
		})
	}
	return out
}

// totalTime runs from the first entry to the last exit. A last screen
// that was never closed ends at entry plus its recorded duration.
func (s *Session) totalTime() int64 {
	if len(s.Screens) == 0 {
		return 0
	}
	first := s.Screens[0].EnteredAt
	last := s.Screens[len(s.Screens)-1]
	end := last.EnteredAt + last.DurationMs
	if last.ExitedAt != nil && *last.ExitedAt != 0 {
		end = *last.ExitedAt
	}
	return end - first
}

func percent(n, of int) int {
	if of == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(of) * 100))
}

func mean(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return int64(math.Round(float64(sum) / float64(len(values))))
}

// median rounds the midpoint of an even-length list.
func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int64(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
}
