package chat

import "fmt"

type Config struct {
	MaxContentLength int // runes
	MaxImages        int
	HistoryLimit     int
}

func (c *Config) Validate() error {
	if c.MaxContentLength <= 0 {
		return fmt.Errorf("max_content_length must be positive")
	}
	if c.MaxImages < 0 {
		return fmt.Errorf("max_images cannot be negative")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		MaxContentLength: 4000,
		MaxImages:        10,
		HistoryLimit:     50,
	}
}
