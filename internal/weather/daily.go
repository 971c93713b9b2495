package weather

// maxDailySummaries caps the output at five distinct calendar days, matching
// the range of the provider's 5-day/3-hour forecast.
const maxDailySummaries = 5

// AggregateDaily collapses 3-hour forecast samples into per-day summaries.
// Samples are bucketed by the local calendar date of their timestamp. The
// first sample of a date seeds the summary (min = max = its temperature) and
// supplies humidity, wind and conditions; later samples on the same date only
// widen the min/max range. Summaries come out in first-seen order, truncated
// to the first five distinct dates.
func AggregateDaily(samples []ForecastSample) []DailySummary {
	type dayKey struct {
		year  int
		month int
		day   int
	}

	index := make(map[dayKey]int, maxDailySummaries)
	summaries := make([]DailySummary, 0, maxDailySummaries)

	for _, s := range samples {
		t := s.Time()
		key := dayKey{t.Year(), int(t.Month()), t.Day()}

		i, seen := index[key]
		if !seen {
			index[key] = len(summaries)
			summaries = append(summaries, DailySummary{
				Timestamp: s.Timestamp,
				Temp: TempRange{
					Min: s.Temp,
					Max: s.Temp,
					Day: s.Temp,
				},
				Conditions: s.Conditions,
				Humidity:   s.Humidity,
				WindSpeed:  s.WindSpeed,
				WindDeg:    s.WindDeg,
			})
			continue
		}

		if s.Temp < summaries[i].Temp.Min {
			summaries[i].Temp.Min = s.Temp
		}
		if s.Temp > summaries[i].Temp.Max {
			summaries[i].Temp.Max = s.Temp
		}
	}

	if len(summaries) > maxDailySummaries {
		summaries = summaries[:maxDailySummaries]
	}

	return summaries
}
