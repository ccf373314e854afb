package data

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the samples of one channel.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes a Summary of samples. It fails on an empty slice.
func Summarize(samples []float64) (Summary, error) {
	mean, err := stats.Mean(samples)
	if err != nil {
		return Summary{}, err
	}
	sd, err := stats.StandardDeviation(samples)
	if err != nil {
		return Summary{}, err
	}
	minVal, err := stats.Min(samples)
	if err != nil {
		return Summary{}, err
	}
	maxVal, err := stats.Max(samples)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Count: len(samples), Mean: mean, StdDev: sd, Min: minVal, Max: maxVal}, nil
}

// SummarizeChannels summarizes every channel across readings, keyed by channel name. Readings are
// expected to come from the same task.
func SummarizeChannels(readings []Reading) (map[string]Summary, error) {
	perChannel := map[string][]float64{}
	for i := range readings {
		for c, name := range readings[i].Channels {
			samples, err := readings[i].Channel(c)
			if err != nil {
				return nil, err
			}
			perChannel[name] = append(perChannel[name], samples...)
		}
	}
	out := make(map[string]Summary, len(perChannel))
	for name, samples := range perChannel {
		s, err := Summarize(samples)
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}
