package amqp

import (
	"testing"
	"time"
)

func TestDatasetRefreshMessageRoundTrip(t *testing.T) {
	msg := NewDatasetRefreshMessage("ingest", []string{"county_mapping", "rize_grants"})
	if msg.Source != "ingest" {
		t.Fatalf("source = %q", msg.Source)
	}
	if time.Since(msg.Timestamp) > time.Minute {
		t.Fatalf("timestamp not set: %v", msg.Timestamp)
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := DatasetRefreshMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Source != msg.Source {
		t.Fatalf("source = %q", parsed.Source)
	}
	if len(parsed.Tables) != 2 || parsed.Tables[1] != "rize_grants" {
		t.Fatalf("tables = %v", parsed.Tables)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp drifted: %v vs %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestDatasetRefreshMessageFromJSONInvalid(t *testing.T) {
	if _, err := DatasetRefreshMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
