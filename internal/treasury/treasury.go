package treasury

import (
	"fmt"

	"github.com/blues/cfl/internal/logger"
	"github.com/blues/cfl/internal/model"
	"gorm.io/gorm"
)

// Journal 资金划转流水账。
// 真实支付通道接入之前，所有对外划转只记账并落日志；
// 账本引擎在结算提交之后才调用，重复结算由引擎侧保证不可能发生。
type Journal struct {
	db *gorm.DB
}

// NewJournal 创建划转流水账
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Transfer 记录一笔对外划转
func (j *Journal) Transfer(purpose string, campaignId int64, to string, amount int64) error {
	record := model.TransferRecordModel{
		Purpose:    purpose,
		CampaignId: campaignId,
		ToAddress:  to,
		Amount:     amount,
	}
	if err := j.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	logger.Info("Transfer executed: purpose=%s campaign=%d to=%s amount=%d",
		purpose, campaignId, to, amount)
	return nil
}
