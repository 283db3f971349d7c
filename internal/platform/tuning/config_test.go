package tuning

import "testing"

func TestAnalyzeFlagsSlowEventWrites(t *testing.T) {
	snapshot := map[string]interface{}{
		"events": map[string]interface{}{
			"max_write_lat_ms": 75.0,
			"errors":           int64(0),
		},
		"websocket": map[string]interface{}{
			"errors": int64(0),
		},
	}

	rec := Analyze(snapshot)
	if !rec.IncreaseDBConnections {
		t.Error("Expected slow event writes to recommend more DB connections")
	}
	if rec.IncreaseSendBuffer {
		t.Error("No websocket errors, send buffer recommendation unexpected")
	}
	if len(rec.Notes) == 0 {
		t.Error("Expected an explanatory note")
	}
}

func TestAnalyzeFlagsWebsocketErrors(t *testing.T) {
	snapshot := map[string]interface{}{
		"websocket": map[string]interface{}{
			"errors": int64(3),
		},
	}

	rec := Analyze(snapshot)
	if !rec.IncreaseSendBuffer {
		t.Error("Expected websocket errors to recommend a larger send buffer")
	}
}

func TestAnalyzeQuietSnapshotRecommendsNothing(t *testing.T) {
	rec := Analyze(map[string]interface{}{})
	if rec.IncreaseSendBuffer || rec.IncreaseDBConnections || len(rec.Notes) != 0 {
		t.Errorf("Quiet snapshot should yield no recommendations, got %+v", rec)
	}
}

func TestApplyScalesFlaggedSettings(t *testing.T) {
	cfg := LowResourceConfig()
	sendBefore := cfg.ClientSendBuffer
	openBefore := cfg.DBMaxOpenConns

	cfg = Apply(cfg, &Recommendations{IncreaseSendBuffer: true, IncreaseDBConnections: true})

	if cfg.ClientSendBuffer != sendBefore*2 {
		t.Errorf("Expected send buffer doubled, got %d", cfg.ClientSendBuffer)
	}
	if cfg.DBMaxOpenConns <= openBefore {
		t.Errorf("Expected DB pool increased, got %d", cfg.DBMaxOpenConns)
	}
}
