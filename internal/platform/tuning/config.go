// Package tuning provides concurrency tuning for the server's buffers
// and connection pools.
package tuning

import (
	"runtime"
)

// Config holds tuned parameters for the server's concurrent plumbing.
type Config struct {
	// Channel buffer sizes
	EventSubscriberBuffer int
	BroadcastBuffer       int
	ClientSendBuffer      int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisPoolSize  int

	// Rate limiting. MaxActionsPerSecond bounds non-exempt actions per
	// client; the struggle mini-game is exempt.
	MaxActionsPerSecond int
	MaxClients          int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		EventSubscriberBuffer: 256,
		BroadcastBuffer:       256,
		ClientSendBuffer:      64,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,
		RedisPoolSize:  numCPU * 2,

		MaxActionsPerSecond: 2,
		MaxClients:          200,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		EventSubscriberBuffer: 64,
		BroadcastBuffer:       16,
		ClientSendBuffer:      8,

		DBMaxOpenConns: 5,
		DBMaxIdleConns: 2,
		RedisPoolSize:  5,

		MaxActionsPerSecond: 1,
		MaxClients:          20,
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseSendBuffer    bool
	IncreaseDBConnections bool
	Notes                 []string
}

// Analyze examines current metrics and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if maxLat, ok := events["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write latency exceeds 50ms - increase DB connections")
		}
		if errors, ok := events["errors"].(int64); ok && errors > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write errors detected - check DB connection pool")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseSendBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// Apply modifies config based on recommendations.
func Apply(config *Config, rec *Recommendations) *Config {
	if rec.IncreaseSendBuffer {
		config.BroadcastBuffer *= 2
		config.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		config.DBMaxOpenConns = int(float64(config.DBMaxOpenConns) * 1.5)
		config.DBMaxIdleConns = int(float64(config.DBMaxIdleConns) * 1.5)
	}
	return config
}
