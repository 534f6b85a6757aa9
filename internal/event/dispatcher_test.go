package event

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blues/cfl/internal/database"
	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type captureProcessor struct {
	mu     sync.Mutex
	events []ledger.Event
	done   chan struct{}
	fail   bool
}

func newCaptureProcessor(expected int) *captureProcessor {
	p := &captureProcessor{done: make(chan struct{}, expected)}
	return p
}

func (p *captureProcessor) Name() string {
	return "capture"
}

func (p *captureProcessor) Process(event ledger.Event) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.done <- struct{}{}
	if p.fail {
		return errors.New("boom")
	}
	return nil
}

func (p *captureProcessor) wait(t *testing.T, n int) []ledger.Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ledger.Event, len(p.events))
	copy(out, p.events)
	return out
}

func TestDispatcherFansOutToProcessors(t *testing.T) {
	first := newCaptureProcessor(1)
	second := newCaptureProcessor(1)

	d, err := NewDispatcher(4, first, second)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	d.Publish(ledger.Event{
		Type:       ledger.EventContributionReceived,
		CampaignId: 7,
		Amount:     100,
	})

	for _, p := range []*captureProcessor{first, second} {
		events := p.wait(t, 1)
		if len(events) != 1 || events[0].CampaignId != 7 || events[0].Type != ledger.EventContributionReceived {
			t.Fatalf("unexpected events: %+v", events)
		}
	}
}

func TestDispatcherSurvivesProcessorFailure(t *testing.T) {
	failing := newCaptureProcessor(2)
	failing.fail = true

	d, err := NewDispatcher(2, failing)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}
	defer d.Close()

	d.Publish(ledger.Event{Type: ledger.EventCampaignCreated, CampaignId: 1})
	d.Publish(ledger.Event{Type: ledger.EventRefundIssued, CampaignId: 1})

	events := failing.wait(t, 2)
	if len(events) != 2 {
		t.Fatalf("expected 2 events despite failures, got %d", len(events))
	}
}

func TestDispatcherDefaultPoolSize(t *testing.T) {
	d, err := NewDispatcher(0)
	if err != nil {
		t.Fatalf("failed to create dispatcher with default pool size: %v", err)
	}
	d.Close()
}

func TestJournalProcessorPersistsEvents(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "event.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	p := NewJournalProcessor(db)
	err = p.Process(ledger.Event{
		Type:       ledger.EventFundsWithdrawn,
		CampaignId: 3,
		Address:    "0x0000000000000000000000000000000000000001",
		Amount:     500,
		Data: map[string]interface{}{
			"platform_fee": 12,
		},
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	var records []model.EventModel
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("failed to load event records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 event record, got %d", len(records))
	}
	record := records[0]
	if record.EventType != string(ledger.EventFundsWithdrawn) || record.CampaignId != 3 || record.Amount != 500 {
		t.Fatalf("unexpected event record: %+v", record)
	}
	if record.Data == "" {
		t.Fatalf("expected serialized event data")
	}
}
