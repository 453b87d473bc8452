package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatLine_FarmRecord(t *testing.T) {
	line := FormatLine(Event{
		Type:       FarmRecordCreated,
		ActorID:    4,
		OwnerID:    4,
		EntityID:   12,
		OccurredAt: "2024-03-15T10:00:00Z",
		Record: &FarmRecordPayload{
			CropName: "Wheat", Season: "Rabi",
			Revenue: 30000, NetProfit: 22000, ProfitMargin: 73.3333,
		},
	})
	want := `[2024-03-15T10:00:00Z] farm_record.created | entity_id=12 | owner_id=4 | actor_id=4 | crop="Wheat" | season=Rabi | revenue=30000.00 | net=22000.00 | margin=73.33%`
	if line != want {
		t.Errorf("FormatLine() =\n%s\nwant\n%s", line, want)
	}
}

func TestFormatLine_OrderTransition(t *testing.T) {
	line := FormatLine(Event{
		Type:       OrderStatusChanged,
		EntityID:   3,
		OccurredAt: "2024-03-15T10:00:00Z",
		Order:      &OrderPayload{Reference: "abc", From: "pending", To: "cancelled", Total: "12.50"},
	})
	if !strings.Contains(line, "status=pending->cancelled") || !strings.Contains(line, "total=12.50") {
		t.Errorf("FormatLine() = %q, want transition and total", line)
	}
}

func TestHandleMessage_AppendsLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "activity.log")
	for _, id := range []uint64{1, 2} {
		body, err := json.Marshal(Event{
			Type: AdvisoryResolved, EntityID: id, OccurredAt: "t",
			Advisory: &AdvisoryPayload{CropName: "Rice", Status: "resolved"},
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := HandleMessage(body, logPath); err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[1], "entity_id=2") {
		t.Errorf("second line = %q, want entity_id=2", lines[1])
	}
}

func TestHandleMessage_RejectsBadPayload(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "activity.log")
	if err := HandleMessage([]byte("{not json"), logPath); err == nil {
		t.Error("HandleMessage(invalid json) error = nil, want error")
	}
	if err := HandleMessage([]byte(`{"entity_id":1}`), logPath); err == nil {
		t.Error("HandleMessage(no type) error = nil, want error")
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("log file created for rejected messages: %v", err)
	}
}
