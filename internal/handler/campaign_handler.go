package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CampaignHandler 活动处理器
type CampaignHandler struct {
	engine        *ledger.Engine
	campaignLogic *logic.CampaignLogic
}

// NewCampaignHandler 创建活动处理器
func NewCampaignHandler(engine *ledger.Engine, db *gorm.DB) *CampaignHandler {
	return &CampaignHandler{
		engine:        engine,
		campaignLogic: logic.NewCampaignLogic(db),
	}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	campaignId, err := h.engine.CreateCampaign(req.Creator, req.Title, req.Description,
		req.TargetAmount, req.DurationInDays)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	campaign, err := h.engine.GetCampaign(campaignId)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "活动创建成功", ToCampaignResponse(campaign))
}

// GetCampaigns 分页获取活动列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignLogic.GetCampaigns(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取活动列表成功", gin.H{
		"campaigns":  ToCampaignResponseList(campaigns),
		"pagination": pagination,
	})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	campaign, err := h.engine.GetCampaign(campaignId)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动详情成功", ToCampaignResponse(campaign))
}

// GetCampaignContributors 按首次贡献顺序获取活动贡献者列表
func (h *CampaignHandler) GetCampaignContributors(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	contributors, err := h.engine.GetCampaignContributors(campaignId)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献者列表成功", gin.H{
		"contributors": contributors,
	})
}

// GetCampaignContributions 分页获取活动贡献记录
func (h *CampaignHandler) GetCampaignContributions(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	records, total, err := h.campaignLogic.GetCampaignContributions(campaignId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取活动贡献记录成功", gin.H{
		"contributions": ToContributionResponseList(records),
		"pagination":    pagination,
	})
}

// IsCampaignSuccessful 判定活动是否成功
func (h *CampaignHandler) IsCampaignSuccessful(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	successful, err := h.engine.IsCampaignSuccessful(campaignId)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动结果成功", gin.H{
		"campaignId": campaignId,
		"successful": successful,
	})
}

// GetCampaignStats 获取活动统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	stats, err := h.campaignLogic.GetCampaignStats(campaignId)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取活动统计成功", stats)
}

func parseCampaignId(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
