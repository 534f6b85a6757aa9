package model

import (
	"time"
)

// TransferRecordModel 对外资金划转流水，结算提交后记账
type TransferRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Purpose    string `json:"purpose" gorm:"not null"` // settlement, platform_fee, refund
	CampaignId int64  `json:"campaign_id" gorm:"not null;index"`
	ToAddress  string `json:"to_address" gorm:"not null"`
	Amount     int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (TransferRecordModel) TableName() string {
	return "transfer_record"
}
