// internal/workers/matching/find-matches/config.go
package findmatches

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         15 * time.Second,
		DefaultRadiusKm: 10,
		MaxRadiusKm:     100,
	}
}
