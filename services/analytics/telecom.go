// Package analytics turns raw dashboard rows into the aggregates the KPI
// cards and charts need. Every function is pure and deterministic.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"lakebase_dashboards/models"
)

// KPI ids for the telecom dashboard
const (
	KPIUsers   = "kpi-users"
	KPIData    = "kpi-data"
	KPISignal  = "kpi-signal"
	KPITowers  = "kpi-towers"
	MaxTowers  = 5
	TowerTail  = 100
	HeatBucket = 5 * time.Minute
)

// Regions returns the distinct regions in sorted order
func Regions(rows []models.IoTReading) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Region]; ok || r.Region == "" {
			continue
		}
		seen[r.Region] = struct{}{}
		out = append(out, r.Region)
	}
	sort.Strings(out)
	return out
}

// FilterRegion keeps the rows of one region; an empty region keeps all
func FilterRegion(rows []models.IoTReading, region string) []models.IoTReading {
	if region == "" {
		return rows
	}
	out := make([]models.IoTReading, 0, len(rows))
	for _, r := range rows {
		if r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// TopTowers returns up to n tower ids in order of first appearance. Rows
// arrive newest first, so these are the most recently reporting towers.
func TopTowers(rows []models.IoTReading, n int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if len(out) == n {
			break
		}
		if _, ok := seen[r.TowerID]; ok {
			continue
		}
		seen[r.TowerID] = struct{}{}
		out = append(out, r.TowerID)
	}
	return out
}

// TowerSeries returns the last limit readings of a tower, oldest first
func TowerSeries(rows []models.IoTReading, tower string, limit int) []models.IoTReading {
	var out []models.IoTReading
	for _, r := range rows {
		if r.TowerID == tower {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Latest returns the newest timestamp in rows
func Latest(rows []models.IoTReading) time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	return latest
}

// ExtensionWindow keeps the rows no older than window before the newest row
func ExtensionWindow(rows []models.IoTReading, window time.Duration) []models.IoTReading {
	if len(rows) == 0 {
		return nil
	}
	cutoff := Latest(rows).Add(-window)
	var out []models.IoTReading
	for _, r := range rows {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// TelecomKPIs are the four summary cards of the telecom dashboard
type TelecomKPIs struct {
	TotalUsers   int64
	TotalDataGB  float64
	AvgSignalDBM float64
	HasSignal    bool
	ActiveTowers int
}

// ComputeTelecomKPIs aggregates rows (already filtered to a region)
func ComputeTelecomKPIs(rows []models.IoTReading) TelecomKPIs {
	var (
		k       TelecomKPIs
		dataMB  float64
		signal  float64
		samples int
		towers  = make(map[string]struct{})
	)
	for _, r := range rows {
		k.TotalUsers += r.ActiveUsers
		dataMB += r.DataUsageMB
		towers[r.TowerID] = struct{}{}
		if r.SignalStrengthDBM != nil {
			signal += *r.SignalStrengthDBM
			samples++
		}
	}
	k.TotalDataGB = dataMB / 1024
	k.ActiveTowers = len(towers)
	if samples > 0 {
		k.AvgSignalDBM = signal / float64(samples)
		k.HasSignal = true
	}
	return k
}

// Cards formats the KPIs for display
func (k TelecomKPIs) Cards() []KPI {
	signal := "N/A"
	if k.HasSignal {
		signal = fmt.Sprintf("%.1f dBm", k.AvgSignalDBM)
	}
	return []KPI{
		{ID: KPIUsers, Label: "Total Active Users", Value: Thousands(k.TotalUsers)},
		{ID: KPIData, Label: "Total Data Usage", Value: fmt.Sprintf("%.2f GB", k.TotalDataGB)},
		{ID: KPISignal, Label: "Avg Signal Strength", Value: signal},
		{ID: KPITowers, Label: "Active Towers", Value: fmt.Sprintf("%d", k.ActiveTowers)},
	}
}

// EmptyTelecomCards is what the cards show before any data arrived
func EmptyTelecomCards() []KPI {
	return []KPI{
		{ID: KPIUsers, Label: "Total Active Users", Value: "0"},
		{ID: KPIData, Label: "Total Data Usage", Value: "0 GB"},
		{ID: KPISignal, Label: "Avg Signal Strength", Value: "0 dBm"},
		{ID: KPITowers, Label: "Active Towers", Value: "0"},
	}
}

// CallDropPercent is the mean call drop rate as a percentage. Sources
// disagree on whether the column is a ratio or a percentage; values
// below 1 are treated as ratios.
func CallDropPercent(rows []models.IoTReading) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.CallDropRate
	}
	avg := sum / float64(len(rows))
	if avg < 1 {
		avg *= 100
	}
	return avg
}

// RegionSummary aggregates one region for the pie and bar charts
type RegionSummary struct {
	Region       string
	TotalUsers   int64
	MeanDataMB   float64
	MeanUsers    float64
	MeanDropRate float64
}

// SummarizeRegions groups rows by region, sorted by region name
func SummarizeRegions(rows []models.IoTReading) []RegionSummary {
	type acc struct {
		users      int64
		data, drop float64
		count      int
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		a, ok := groups[r.Region]
		if !ok {
			a = &acc{}
			groups[r.Region] = a
		}
		a.users += r.ActiveUsers
		a.data += r.DataUsageMB
		a.drop += r.CallDropRate
		a.count++
	}

	out := make([]RegionSummary, 0, len(groups))
	for region, a := range groups {
		n := float64(a.count)
		out = append(out, RegionSummary{
			Region:       region,
			TotalUsers:   a.users,
			MeanDataMB:   a.data / n,
			MeanUsers:    float64(a.users) / n,
			MeanDropRate: a.drop / n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// Heatmap is a region × time-bucket pivot of mean active users. Cells
// with no readings are nil.
type Heatmap struct {
	Regions []string
	Buckets []time.Time
	Z       [][]*float64
}

// ActivityHeatmap buckets readings by floor(timestamp, bucket) and region
func ActivityHeatmap(rows []models.IoTReading, bucket time.Duration) Heatmap {
	type key struct {
		region string
		at     int64
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	bucketSet := make(map[int64]time.Time)
	for _, r := range rows {
		at := r.Timestamp.Truncate(bucket)
		k := key{r.Region, at.UnixNano()}
		sums[k] += float64(r.ActiveUsers)
		counts[k]++
		bucketSet[at.UnixNano()] = at
	}

	h := Heatmap{Regions: Regions(rows)}
	for _, at := range bucketSet {
		h.Buckets = append(h.Buckets, at)
	}
	sort.Slice(h.Buckets, func(i, j int) bool { return h.Buckets[i].Before(h.Buckets[j]) })

	h.Z = make([][]*float64, len(h.Regions))
	for i, region := range h.Regions {
		h.Z[i] = make([]*float64, len(h.Buckets))
		for j, at := range h.Buckets {
			k := key{region, at.UnixNano()}
			if n := counts[k]; n > 0 {
				mean := sums[k] / float64(n)
				h.Z[i][j] = &mean
			}
		}
	}
	return h
}
