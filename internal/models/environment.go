package models

import "time"

// Environment is a validated sensor reading.
type Environment struct {
	TempC    float64   `json:"temp_c"`
	Humidity float64   `json:"humidity"` // percent, 0..100
	ReadAt   time.Time `json:"read_at"`
}

// SensorStatus reports sensor reachability and cache health.
type SensorStatus struct {
	Address           string   `json:"address"`
	ConsecutiveErrors int      `json:"consecutive_errors"`
	LastError         string   `json:"last_error,omitempty"`
	CacheValid        bool     `json:"cache_valid"`
	CacheAgeSeconds   *float64 `json:"cache_age_seconds,omitempty"`
}
