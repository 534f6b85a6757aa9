package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/cfl/internal/model"
	"gorm.io/gorm"
)

// CampaignLogic 活动读侧查询
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建活动查询逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// GetCampaigns 分页获取活动列表
func (l *CampaignLogic) GetCampaigns(page, pageSize int) ([]model.CampaignModel, int64, error) {
	var campaigns []model.CampaignModel
	var total int64

	// 获取总数
	if err := l.db.Model(&model.CampaignModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := l.db.Order("id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&campaigns).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return campaigns, total, nil
}

// GetCampaignContributions 分页获取活动贡献记录，按首次贡献顺序
func (l *CampaignLogic) GetCampaignContributions(campaignId int64, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var contributions []model.ContributionModel
	var total int64

	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contributions: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := l.db.Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&contributions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list contributions: %w", err)
	}

	return contributions, total, nil
}

// GetCampaignStats 获取单个活动的统计信息
func (l *CampaignLogic) GetCampaignStats(campaignId int64) (map[string]interface{}, error) {
	var campaign model.CampaignModel
	if err := l.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("campaign not found")
		}
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	var contributorCount int64
	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributors: %w", err)
	}

	var refundedCount int64
	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ? AND refunded = ?", campaignId, true).
		Count(&refundedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count refunded contributions: %w", err)
	}

	// 计算完成百分比
	completionPercentage := float64(0)
	if campaign.TargetAmount > 0 {
		completionPercentage = float64(campaign.RaisedAmount) / float64(campaign.TargetAmount) * 100
	}

	// 计算剩余时间
	remainingTime := time.Duration(0)
	if time.Now().Before(campaign.Deadline) {
		remainingTime = time.Until(campaign.Deadline)
	}

	return map[string]interface{}{
		"campaign_id":           campaign.Id,
		"raised_amount":         campaign.RaisedAmount,
		"target_amount":         campaign.TargetAmount,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"refunded_count":        refundedCount,
		"withdrawn":             campaign.Withdrawn,
		"remaining_time":        remainingTime.String(),
		"deadline":              campaign.Deadline,
	}, nil
}
