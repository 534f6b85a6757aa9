package model

import (
	"time"
)

// ContributionModel 贡献记录，每个地址在每个活动下唯一，重复贡献累加
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_contribution_campaign_address"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_contribution_campaign_address"`

	// 该地址对该活动的累计贡献额
	Amount int64 `json:"amount" gorm:"not null;default:0"`

	// 是否已退款，每个地址每个活动最多一次
	Refunded bool `json:"refunded" gorm:"not null;default:false"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
