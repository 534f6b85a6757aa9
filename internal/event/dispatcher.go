package event

import (
	"fmt"

	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// Processor 事件处理器
type Processor interface {
	Name() string
	Process(event ledger.Event) error
}

// Dispatcher 事件分发器，用协程池把账本事件分发给各处理器。
// 事件是观测性流水，不是账本真相；处理失败只记日志。
type Dispatcher struct {
	pool       *ants.Pool
	processors []Processor
}

// NewDispatcher 创建事件分发器
func NewDispatcher(poolSize int, processors ...Processor) (*Dispatcher, error) {
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create event pool: %w", err)
	}

	return &Dispatcher{
		pool:       pool,
		processors: processors,
	}, nil
}

// Publish 分发事件到所有处理器
func (d *Dispatcher) Publish(event ledger.Event) {
	for _, p := range d.processors {
		p := p
		err := d.pool.Submit(func() {
			if err := p.Process(event); err != nil {
				logger.Error("Processor %s failed on %s event for campaign %d: %v",
					p.Name(), event.Type, event.CampaignId, err)
			}
		})
		if err != nil {
			logger.Error("Failed to submit %s event to pool: %v", event.Type, err)
		}
	}
}

// Close 释放协程池
func (d *Dispatcher) Close() {
	d.pool.Release()
}
