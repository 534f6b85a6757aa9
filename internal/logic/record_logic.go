package logic

import (
	"errors"
	"fmt"

	"github.com/blues/cfl/internal/model"
	"gorm.io/gorm"
)

// RecordLogic 结算/退款流水查询
type RecordLogic struct {
	db *gorm.DB
}

// NewRecordLogic 创建流水查询逻辑
func NewRecordLogic(db *gorm.DB) *RecordLogic {
	return &RecordLogic{db: db}
}

// GetCampaignRefunds 分页获取活动退款记录
func (l *RecordLogic) GetCampaignRefunds(campaignId int64, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var refunds []model.RefundRecordModel
	var total int64

	if err := l.db.Model(&model.RefundRecordModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count refund records: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&refunds).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list refund records: %w", err)
	}

	return refunds, total, nil
}

// GetCampaignSettlement 获取活动结算记录，未结算时返回 nil
func (l *RecordLogic) GetCampaignSettlement(campaignId int64) (*model.SettlementRecordModel, error) {
	var record model.SettlementRecordModel
	if err := l.db.Where("campaign_id = ?", campaignId).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load settlement record: %w", err)
	}
	return &record, nil
}

// GetPlatformSummary 获取平台汇总，给统计任务用
func (l *RecordLogic) GetPlatformSummary() (map[string]interface{}, error) {
	var totalContributors int64
	if err := l.db.Model(&model.ContributionModel{}).
		Distinct("address").
		Count(&totalContributors).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributors: %w", err)
	}

	var totalRefunded int64
	if err := l.db.Model(&model.RefundRecordModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRefunded).Error; err != nil {
		return nil, fmt.Errorf("failed to sum refunds: %w", err)
	}

	var totalSettled int64
	if err := l.db.Model(&model.SettlementRecordModel{}).
		Select("COALESCE(SUM(creator_amount), 0)").
		Scan(&totalSettled).Error; err != nil {
		return nil, fmt.Errorf("failed to sum settlements: %w", err)
	}

	var totalFees int64
	if err := l.db.Model(&model.SettlementRecordModel{}).
		Select("COALESCE(SUM(platform_fee), 0)").
		Scan(&totalFees).Error; err != nil {
		return nil, fmt.Errorf("failed to sum platform fees: %w", err)
	}

	return map[string]interface{}{
		"totalContributors": totalContributors,
		"totalRefunded":     totalRefunded,
		"totalSettled":      totalSettled,
		"totalFees":         totalFees,
	}, nil
}
