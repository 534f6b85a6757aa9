package model

import (
	"time"
)

// PlatformModel 平台配置（单行记录，启动时初始化一次）
type PlatformModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 平台所有者地址，初始化后不可变
	OwnerAddress string `json:"owner_address" gorm:"not null"`

	// 手续费（基点，10000为100%，上限1000），仅所有者可修改
	FeeBasisPoints int64 `json:"fee_basis_points" gorm:"not null;default:0"`

	// 活动ID计数器，只增不减
	CampaignCounter int64 `json:"campaign_counter" gorm:"not null;default:0"`

	// 历史活动总数
	TotalCampaigns int64 `json:"total_campaigns" gorm:"not null;default:0"`

	// 历史累计贡献总额，只增不减，提现和退款都不扣减
	TotalFundsRaised int64 `json:"total_funds_raised" gorm:"not null;default:0"`
}

// TableName 自定义表名
func (PlatformModel) TableName() string {
	return "platform"
}
