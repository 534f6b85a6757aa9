package event

import (
	"encoding/json"
	"fmt"

	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/model"
	"gorm.io/gorm"
)

// JournalProcessor 把账本事件落库为事件流水
type JournalProcessor struct {
	db *gorm.DB
}

// NewJournalProcessor 创建事件流水处理器
func NewJournalProcessor(db *gorm.DB) *JournalProcessor {
	return &JournalProcessor{db: db}
}

// Name 处理器名称
func (p *JournalProcessor) Name() string {
	return "event_journal"
}

// Process 落库事件
func (p *JournalProcessor) Process(event ledger.Event) error {
	var data string
	if len(event.Data) > 0 {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		data = string(raw)
	}

	record := model.EventModel{
		EventType:  string(event.Type),
		CampaignId: event.CampaignId,
		Address:    event.Address,
		Amount:     event.Amount,
		Data:       data,
	}
	if err := p.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create event record: %w", err)
	}
	return nil
}
