// Package metrics provides observability for the system server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance and gameplay metrics.
type Collector struct {
	// Session metrics
	SessionsOpened int64
	SessionsActive int64

	// Quest metrics
	QuestsCompleted   int64
	PenaltiesTriggered int64
	PenaltiesSurvived  int64
	Purchases          int64

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64 // nanoseconds
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// LLM metrics
	LLMRequests   int64
	LLMTokensUsed int64
	LLMCostUSD    float64
	LLMLatencySum int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordSessionOpened records a login.
func (c *Collector) RecordSessionOpened() {
	atomic.AddInt64(&c.SessionsOpened, 1)
	atomic.AddInt64(&c.SessionsActive, 1)
}

// RecordSessionClosed records a logout.
func (c *Collector) RecordSessionClosed() {
	atomic.AddInt64(&c.SessionsActive, -1)
}

// RecordQuestCompleted records a daily quest completion.
func (c *Collector) RecordQuestCompleted() {
	atomic.AddInt64(&c.QuestsCompleted, 1)
}

// RecordPenaltyTriggered records a penalty zone activation.
func (c *Collector) RecordPenaltyTriggered() {
	atomic.AddInt64(&c.PenaltiesTriggered, 1)
}

// RecordPenaltySurvived records a penalty zone escape.
func (c *Collector) RecordPenaltySurvived() {
	atomic.AddInt64(&c.PenaltiesSurvived, 1)
}

// RecordPurchase records a shop purchase.
func (c *Collector) RecordPurchase() {
	atomic.AddInt64(&c.Purchases, 1)
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordLLMCall records an LLM API call.
func (c *Collector) RecordLLMCall(tokens int, cost float64, latency time.Duration) {
	atomic.AddInt64(&c.LLMRequests, 1)
	atomic.AddInt64(&c.LLMTokensUsed, int64(tokens))
	atomic.AddInt64(&c.LLMLatencySum, int64(latency))

	c.mu.Lock()
	c.LLMCostUSD += cost
	c.mu.Unlock()
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	eventsWritten := atomic.LoadInt64(&c.EventsWritten)
	llmRequests := atomic.LoadInt64(&c.LLMRequests)

	var eventAvg, llmAvg float64
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6 // ms
	}
	if llmRequests > 0 {
		llmAvg = float64(atomic.LoadInt64(&c.LLMLatencySum)) / float64(llmRequests) / 1e9 // seconds
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"sessions": map[string]interface{}{
			"opened": atomic.LoadInt64(&c.SessionsOpened),
			"active": atomic.LoadInt64(&c.SessionsActive),
		},

		"gameplay": map[string]interface{}{
			"quests_completed":    atomic.LoadInt64(&c.QuestsCompleted),
			"penalties_triggered": atomic.LoadInt64(&c.PenaltiesTriggered),
			"penalties_survived":  atomic.LoadInt64(&c.PenaltiesSurvived),
			"purchases":           atomic.LoadInt64(&c.Purchases),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"llm": map[string]interface{}{
			"requests":        llmRequests,
			"tokens_used":     atomic.LoadInt64(&c.LLMTokensUsed),
			"cost_usd":        c.LLMCostUSD,
			"avg_latency_sec": llmAvg,
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP system_sessions_opened Total sessions opened\n")
		fmt.Fprintf(w, "# TYPE system_sessions_opened counter\n")
		fmt.Fprintf(w, "system_sessions_opened %d\n\n", atomic.LoadInt64(&c.SessionsOpened))

		fmt.Fprintf(w, "# HELP system_sessions_active Currently active sessions\n")
		fmt.Fprintf(w, "# TYPE system_sessions_active gauge\n")
		fmt.Fprintf(w, "system_sessions_active %d\n\n", atomic.LoadInt64(&c.SessionsActive))

		fmt.Fprintf(w, "# HELP system_quests_completed Total daily quests completed\n")
		fmt.Fprintf(w, "# TYPE system_quests_completed counter\n")
		fmt.Fprintf(w, "system_quests_completed %d\n\n", atomic.LoadInt64(&c.QuestsCompleted))

		fmt.Fprintf(w, "# HELP system_penalties_triggered Total penalty zone activations\n")
		fmt.Fprintf(w, "# TYPE system_penalties_triggered counter\n")
		fmt.Fprintf(w, "system_penalties_triggered %d\n\n", atomic.LoadInt64(&c.PenaltiesTriggered))

		fmt.Fprintf(w, "# HELP system_penalties_survived Total penalty zone escapes\n")
		fmt.Fprintf(w, "# TYPE system_penalties_survived counter\n")
		fmt.Fprintf(w, "system_penalties_survived %d\n\n", atomic.LoadInt64(&c.PenaltiesSurvived))

		fmt.Fprintf(w, "# HELP system_purchases Total shop purchases\n")
		fmt.Fprintf(w, "# TYPE system_purchases counter\n")
		fmt.Fprintf(w, "system_purchases %d\n\n", atomic.LoadInt64(&c.Purchases))

		fmt.Fprintf(w, "# HELP system_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE system_events_written counter\n")
		fmt.Fprintf(w, "system_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP system_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE system_event_write_errors counter\n")
		fmt.Fprintf(w, "system_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP system_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE system_ws_connections gauge\n")
		fmt.Fprintf(w, "system_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP system_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE system_ws_messages_total counter\n")
		fmt.Fprintf(w, "system_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "system_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP system_llm_requests Total LLM API requests\n")
		fmt.Fprintf(w, "# TYPE system_llm_requests counter\n")
		fmt.Fprintf(w, "system_llm_requests %d\n\n", atomic.LoadInt64(&c.LLMRequests))

		fmt.Fprintf(w, "# HELP system_llm_tokens_used Total tokens consumed\n")
		fmt.Fprintf(w, "# TYPE system_llm_tokens_used counter\n")
		fmt.Fprintf(w, "system_llm_tokens_used %d\n\n", atomic.LoadInt64(&c.LLMTokensUsed))

		c.mu.RLock()
		fmt.Fprintf(w, "# HELP system_llm_cost_usd Total LLM cost in USD\n")
		fmt.Fprintf(w, "# TYPE system_llm_cost_usd counter\n")
		fmt.Fprintf(w, "system_llm_cost_usd %.4f\n", c.LLMCostUSD)
		c.mu.RUnlock()
	}
}
