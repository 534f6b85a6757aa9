package handler

import (
	"time"

	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/model"
)

// 请求模型

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Creator        string `json:"creator" binding:"required"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	TargetAmount   int64  `json:"targetAmount"`
	DurationInDays int    `json:"durationInDays"`
}

// ContributeRequest 贡献请求
type ContributeRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  int64  `json:"amount"`
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	Address string `json:"address" binding:"required"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	Address string `json:"address" binding:"required"`
}

// SetFeeRequest 修改平台费率请求
type SetFeeRequest struct {
	Address        string `json:"address" binding:"required"`
	FeeBasisPoints int64  `json:"feeBasisPoints"`
}

// 响应模型

// CampaignResponse 活动响应模型
type CampaignResponse struct {
	Id           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Creator      string    `json:"creator"`
	TargetAmount int64     `json:"targetAmount"`
	RaisedAmount int64     `json:"raisedAmount"`
	Deadline     time.Time `json:"deadline"`
	Withdrawn    bool      `json:"withdrawn"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ContributionResponse 贡献记录响应模型
type ContributionResponse struct {
	CampaignId int64  `json:"campaignId"`
	Address    string `json:"address"`
	Amount     int64  `json:"amount"`
	Refunded   bool   `json:"refunded"`
}

// RefundRecordResponse 退款记录响应模型
type RefundRecordResponse struct {
	CampaignId int64     `json:"campaignId"`
	Address    string    `json:"address"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SettlementResponse 结算记录响应模型
type SettlementResponse struct {
	CampaignId    int64 `json:"campaignId"`
	TotalAmount   int64 `json:"totalAmount"`
	PlatformFee   int64 `json:"platformFee"`
	CreatorAmount int64 `json:"creatorAmount"`
}

// PlatformStatsResponse 平台统计响应模型
type PlatformStatsResponse struct {
	TotalCampaigns   int64 `json:"totalCampaigns"`
	TotalFundsRaised int64 `json:"totalFundsRaised"`
	ActiveCampaigns  int64 `json:"activeCampaigns"`
}

// 转换函数

// ToCampaignResponse 将数据库模型转换为响应模型
func ToCampaignResponse(campaign *model.CampaignModel) CampaignResponse {
	return CampaignResponse{
		Id:           campaign.Id,
		Title:        campaign.Title,
		Description:  campaign.Description,
		Creator:      campaign.CreatorAddress,
		TargetAmount: campaign.TargetAmount,
		RaisedAmount: campaign.RaisedAmount,
		Deadline:     campaign.Deadline,
		Withdrawn:    campaign.Withdrawn,
		CreatedAt:    campaign.CreatedAt,
	}
}

// ToCampaignResponseList 将数据库模型列表转换为响应模型列表
func ToCampaignResponseList(campaigns []model.CampaignModel) []CampaignResponse {
	result := make([]CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		result[i] = ToCampaignResponse(&campaign)
	}
	return result
}

// ToContributionResponse 将贡献记录转换为响应模型
func ToContributionResponse(record *model.ContributionModel) ContributionResponse {
	return ContributionResponse{
		CampaignId: record.CampaignId,
		Address:    record.Address,
		Amount:     record.Amount,
		Refunded:   record.Refunded,
	}
}

// ToContributionResponseList 将贡献记录列表转换为响应模型列表
func ToContributionResponseList(records []model.ContributionModel) []ContributionResponse {
	result := make([]ContributionResponse, len(records))
	for i, record := range records {
		result[i] = ToContributionResponse(&record)
	}
	return result
}

// ToRefundRecordResponse 将退款记录转换为响应模型
func ToRefundRecordResponse(record *model.RefundRecordModel) RefundRecordResponse {
	return RefundRecordResponse{
		CampaignId: record.CampaignId,
		Address:    record.Address,
		Amount:     record.Amount,
		CreatedAt:  record.CreatedAt,
	}
}

// ToRefundRecordResponseList 将退款记录列表转换为响应模型列表
func ToRefundRecordResponseList(records []model.RefundRecordModel) []RefundRecordResponse {
	result := make([]RefundRecordResponse, len(records))
	for i, record := range records {
		result[i] = ToRefundRecordResponse(&record)
	}
	return result
}

// ToSettlementResponse 将结算记录转换为响应模型
func ToSettlementResponse(record *model.SettlementRecordModel) SettlementResponse {
	return SettlementResponse{
		CampaignId:    record.CampaignId,
		TotalAmount:   record.TotalAmount,
		PlatformFee:   record.PlatformFee,
		CreatorAmount: record.CreatorAmount,
	}
}

// ToPlatformStatsResponse 将平台统计转换为响应模型
func ToPlatformStatsResponse(stats *ledger.PlatformStats) PlatformStatsResponse {
	return PlatformStatsResponse{
		TotalCampaigns:   stats.TotalCampaigns,
		TotalFundsRaised: stats.TotalFundsRaised,
		ActiveCampaigns:  stats.ActiveCampaigns,
	}
}
