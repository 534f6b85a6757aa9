package model

import (
	"time"
)

// CampaignModel 众筹活动
type CampaignModel struct {
	// 活动ID由平台计数器分配，不使用自增
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息，创建后不可变
	Title          string `json:"title" gorm:"not null"`
	Description    string `json:"description" gorm:"type:text;not null"`
	CreatorAddress string `json:"creator_address" gorm:"not null;index"`

	// 众筹信息（最小货币单位）
	TargetAmount int64     `json:"target_amount" gorm:"not null"`
	Deadline     time.Time `json:"deadline" gorm:"not null"`

	// 累计筹款额，只增不减，退款不扣减
	RaisedAmount int64 `json:"raised_amount" gorm:"not null;default:0"`

	// 创建者是否已提现，最多一次
	Withdrawn bool `json:"withdrawn" gorm:"not null;default:false"`
}

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
