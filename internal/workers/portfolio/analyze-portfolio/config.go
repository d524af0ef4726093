// internal/workers/portfolio/analyze-portfolio/config.go
package analyzeportfolio

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
