package model

import (
	"time"
)

// RefundRecordModel 退款记录（失败活动），每个地址每个活动最多一条
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_refund_campaign_address"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_refund_campaign_address"`
	Amount     int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
