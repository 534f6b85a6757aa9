package event

import (
	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logger"
)

// LogProcessor 把账本事件写进日志
type LogProcessor struct{}

// NewLogProcessor 创建日志处理器
func NewLogProcessor() *LogProcessor {
	return &LogProcessor{}
}

// Name 处理器名称
func (p *LogProcessor) Name() string {
	return "event_log"
}

// Process 记录事件日志
func (p *LogProcessor) Process(event ledger.Event) error {
	logger.Info("Ledger event: type=%s campaign=%d address=%s amount=%d",
		event.Type, event.CampaignId, event.Address, event.Amount)
	return nil
}
