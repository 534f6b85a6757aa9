package model

import (
	"time"
)

// SettlementRecordModel 结算记录（成功活动提现），每个活动最多一条
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId     int64  `json:"campaign_id" gorm:"not null;uniqueIndex"`
	CreatorAddress string `json:"creator_address" gorm:"not null"`
	TotalAmount    int64  `json:"total_amount" gorm:"not null"`    // 筹款总额
	PlatformFee    int64  `json:"platform_fee" gorm:"default:0"`   // 平台手续费
	CreatorAmount  int64  `json:"creator_amount" gorm:"not null"`  // 创建者获得金额
	FeeBasisPoints int64  `json:"fee_basis_points" gorm:"not null"` // 结算时的费率
}

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
