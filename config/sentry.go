package config

import "fmt"

// SentryConfig points panic and error reports of the instrument at a Sentry
// project. Without a DSN nothing is sent.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

func (s *SentryConfig) SetDefaults() {
	if s.DSN != "" && s.Environment == "" {
		s.Environment = "bench"
	}
}

func (s SentryConfig) Validate() error {
	if s.TracesSampleRate < 0 || s.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate %.2f outside [0,1]", s.TracesSampleRate)
	}
	return nil
}
