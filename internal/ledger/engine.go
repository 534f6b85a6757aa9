package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/cfl/internal/logger"
	"github.com/blues/cfl/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

const (
	// 手续费基点上限（10% of 10000）
	MaxFeeBasisPoints = 1000

	// 活动持续时间范围（天）
	MinDurationDays = 1
	MaxDurationDays = 365
)

// Engine 众筹账本引擎。
// 所有活动、贡献记录和平台统计都由它持有并落库；每个操作串行执行，
// 要么全部生效要么全部失效。成功/失败的判定不落状态字段，
// 而是在调用时由金额和时间戳推导，避免第二份真相。
type Engine struct {
	db       *gorm.DB
	treasury Treasury
	sink     EventSink

	mu  sync.RWMutex
	now func() time.Time
}

// SettlementResult 提现结算结果
type SettlementResult struct {
	CampaignId    int64 `json:"campaign_id"`
	TotalAmount   int64 `json:"total_amount"`
	PlatformFee   int64 `json:"platform_fee"`
	CreatorAmount int64 `json:"creator_amount"`
}

// PlatformStats 平台统计
type PlatformStats struct {
	TotalCampaigns   int64 `json:"total_campaigns"`
	TotalFundsRaised int64 `json:"total_funds_raised"`
	ActiveCampaigns  int64 `json:"active_campaigns"`
}

// Init 初始化账本引擎，平台配置行不存在时创建。
// 所有者地址在首次初始化后不可变，配置中的费率只在首次初始化时生效。
func Init(db *gorm.DB, ownerAddress string, feeBasisPoints int64, treasury Treasury, sink EventSink) (*Engine, error) {
	owner, err := normalizeAddress(ownerAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid platform owner address %q: %w", ownerAddress, err)
	}
	if feeBasisPoints < 0 || feeBasisPoints > MaxFeeBasisPoints {
		return nil, ErrInvalidFee
	}

	e := &Engine{
		db:       db,
		treasury: treasury,
		sink:     sink,
		now:      time.Now,
	}

	var platform model.PlatformModel
	if err := db.First(&platform).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load platform config: %w", err)
		}
		platform = model.PlatformModel{
			OwnerAddress:   owner,
			FeeBasisPoints: feeBasisPoints,
		}
		if err := db.Create(&platform).Error; err != nil {
			return nil, fmt.Errorf("failed to create platform config: %w", err)
		}
		logger.Info("Platform ledger initialized, owner=%s fee=%d bp", owner, feeBasisPoints)
	} else {
		logger.Info("Platform ledger loaded, owner=%s fee=%d bp, %d campaigns",
			platform.OwnerAddress, platform.FeeBasisPoints, platform.TotalCampaigns)
	}

	return e, nil
}

// CreateCampaign 创建众筹活动，返回新活动ID。
// 活动ID由平台计数器分配，从1开始单调递增。
func (e *Engine) CreateCampaign(creator, title, description string, targetAmount int64, durationInDays int) (int64, error) {
	creatorAddr, err := normalizeAddress(creator)
	if err != nil {
		return 0, err
	}
	if targetAmount <= 0 {
		return 0, ErrInvalidTarget
	}
	if durationInDays < MinDurationDays || durationInDays > MaxDurationDays {
		return 0, ErrInvalidDuration
	}
	if title == "" || description == "" {
		return 0, ErrInvalidMetadata
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	deadline := now.Add(time.Duration(durationInDays) * 24 * time.Hour)

	// 开始事务
	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var platform model.PlatformModel
	if err := tx.First(&platform).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to load platform config: %w", err)
	}

	// 分配活动ID并累加计数
	campaignId := platform.CampaignCounter + 1
	if err := tx.Model(&platform).Updates(map[string]interface{}{
		"campaign_counter": gorm.Expr("campaign_counter + 1"),
		"total_campaigns":  gorm.Expr("total_campaigns + 1"),
	}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to update platform counters: %w", err)
	}

	campaign := model.CampaignModel{
		Id:             campaignId,
		Title:          title,
		Description:    description,
		CreatorAddress: creatorAddr,
		TargetAmount:   targetAmount,
		Deadline:       deadline,
	}
	if err := tx.Create(&campaign).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to create campaign: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit campaign creation: %w", err)
	}

	logger.Info("Campaign %d created by %s, target=%d deadline=%s",
		campaignId, creatorAddr, targetAmount, deadline.Format(time.RFC3339))

	e.publish(Event{
		Type:       EventCampaignCreated,
		CampaignId: campaignId,
		Address:    creatorAddr,
		Amount:     targetAmount,
		Data: map[string]interface{}{
			"title":    title,
			"deadline": deadline.Unix(),
		},
	})

	return campaignId, nil
}

// Contribute 向活动贡献资金，返回该地址的累计贡献额。
// 同一地址重复贡献累加到同一条记录；截止时间之后拒绝贡献，即使目标未达成。
func (e *Engine) Contribute(campaignId int64, contributor string, amount int64) (int64, error) {
	addr, err := normalizeAddress(contributor)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var campaign model.CampaignModel
	if err := tx.First(&campaign, campaignId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCampaignNotFound
		}
		return 0, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}

	// 截止时间一到，活动即关闭
	if !e.now().Before(campaign.Deadline) {
		tx.Rollback()
		return 0, ErrCampaignClosed
	}

	// 查找或创建该地址的贡献记录
	var contribution model.ContributionModel
	err = tx.Where("campaign_id = ? AND address = ?", campaignId, addr).First(&contribution).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		contribution = model.ContributionModel{
			CampaignId: campaignId,
			Address:    addr,
			Amount:     amount,
		}
		if err := tx.Create(&contribution).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to create contribution record: %w", err)
		}
	case err != nil:
		tx.Rollback()
		return 0, fmt.Errorf("failed to load contribution record: %w", err)
	default:
		contribution.Amount += amount
		if err := tx.Model(&contribution).Update("amount", contribution.Amount).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to update contribution record: %w", err)
		}
	}

	// 累加活动筹款额
	if err := tx.Model(&campaign).Update("raised_amount", gorm.Expr("raised_amount + ?", amount)).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to update raised amount: %w", err)
	}

	// 累加平台历史贡献总额，提现和退款都不扣减
	var platform model.PlatformModel
	if err := tx.First(&platform).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to load platform config: %w", err)
	}
	if err := tx.Model(&platform).
		Update("total_funds_raised", gorm.Expr("total_funds_raised + ?", amount)).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to update total funds raised: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit contribution: %w", err)
	}

	logger.Info("Contribution: campaign=%d contributor=%s amount=%d cumulative=%d",
		campaignId, addr, amount, contribution.Amount)

	e.publish(Event{
		Type:       EventContributionReceived,
		CampaignId: campaignId,
		Address:    addr,
		Amount:     amount,
		Data: map[string]interface{}{
			"cumulative": contribution.Amount,
		},
	})

	return contribution.Amount, nil
}

// WithdrawFunds 成功活动结算，仅创建者可调用，每个活动最多一次。
// 要求截止时间已过且筹款额达到目标；手续费按结算时费率从筹款总额中截断计算，
// 余数归创建者。withdrawn 标记与结算记录同事务提交，资金划转在提交之后执行，
// 因此划转路径上的任何失败或重入都无法再次触发同一笔结算。
func (e *Engine) WithdrawFunds(campaignId int64, caller string) (*SettlementResult, error) {
	addr, err := normalizeAddress(caller)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var campaign model.CampaignModel
	if err := tx.First(&campaign, campaignId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}

	if campaign.CreatorAddress != addr {
		tx.Rollback()
		return nil, ErrNotCreator
	}
	// 即使提前达标也要等截止时间，保留后续贡献者的参与窗口
	if !e.isSuccessful(&campaign) {
		tx.Rollback()
		return nil, ErrCampaignNotSuccessful
	}
	if campaign.Withdrawn {
		tx.Rollback()
		return nil, ErrAlreadyWithdrawn
	}

	var platform model.PlatformModel
	if err := tx.First(&platform).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load platform config: %w", err)
	}

	// 截断整数除法，余数归创建者
	fee := campaign.RaisedAmount * platform.FeeBasisPoints / 10000
	creatorAmount := campaign.RaisedAmount - fee

	if err := tx.Model(&campaign).Update("withdrawn", true).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark campaign withdrawn: %w", err)
	}

	record := model.SettlementRecordModel{
		CampaignId:     campaignId,
		CreatorAddress: campaign.CreatorAddress,
		TotalAmount:    campaign.RaisedAmount,
		PlatformFee:    fee,
		CreatorAmount:  creatorAmount,
		FeeBasisPoints: platform.FeeBasisPoints,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create settlement record: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	logger.Info("Settlement: campaign=%d total=%d fee=%d creator=%d",
		campaignId, campaign.RaisedAmount, fee, creatorAmount)

	// 对外划转只在状态提交之后执行
	e.transfer(TransferPurposeSettlement, campaignId, campaign.CreatorAddress, creatorAmount)
	if fee > 0 {
		e.transfer(TransferPurposePlatformFee, campaignId, platform.OwnerAddress, fee)
	}

	e.publish(Event{
		Type:       EventFundsWithdrawn,
		CampaignId: campaignId,
		Address:    campaign.CreatorAddress,
		Amount:     creatorAmount,
		Data: map[string]interface{}{
			"platform_fee": fee,
			"total_amount": campaign.RaisedAmount,
		},
	})

	return &SettlementResult{
		CampaignId:    campaignId,
		TotalAmount:   campaign.RaisedAmount,
		PlatformFee:   fee,
		CreatorAmount: creatorAmount,
	}, nil
}

// RequestRefund 失败活动退款，返回退款金额，每个地址每个活动最多一次。
// 只有截止时间已过且未达标的活动允许退款；退款不扣减活动筹款额和平台历史总额。
func (e *Engine) RequestRefund(campaignId int64, contributor string) (int64, error) {
	addr, err := normalizeAddress(contributor)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var campaign model.CampaignModel
	if err := tx.First(&campaign, campaignId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCampaignNotFound
		}
		return 0, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}

	if !e.isFailed(&campaign) {
		tx.Rollback()
		return 0, ErrCampaignNotFailed
	}

	var contribution model.ContributionModel
	if err := tx.Where("campaign_id = ? AND address = ?", campaignId, addr).First(&contribution).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoContribution
		}
		return 0, fmt.Errorf("failed to load contribution record: %w", err)
	}

	if contribution.Refunded {
		tx.Rollback()
		return 0, ErrAlreadyRefunded
	}
	if contribution.Amount <= 0 {
		tx.Rollback()
		return 0, ErrNoContribution
	}

	if err := tx.Model(&contribution).Update("refunded", true).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to mark contribution refunded: %w", err)
	}

	record := model.RefundRecordModel{
		CampaignId: campaignId,
		Address:    addr,
		Amount:     contribution.Amount,
	}
	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to create refund record: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit refund: %w", err)
	}

	logger.Info("Refund: campaign=%d contributor=%s amount=%d", campaignId, addr, contribution.Amount)

	// 对外划转只在状态提交之后执行
	e.transfer(TransferPurposeRefund, campaignId, addr, contribution.Amount)

	e.publish(Event{
		Type:       EventRefundIssued,
		CampaignId: campaignId,
		Address:    addr,
		Amount:     contribution.Amount,
	})

	return contribution.Amount, nil
}

// SetPlatformFee 修改平台费率，仅所有者可调用
func (e *Engine) SetPlatformFee(caller string, feeBasisPoints int64) error {
	addr, err := normalizeAddress(caller)
	if err != nil {
		return err
	}
	if feeBasisPoints < 0 || feeBasisPoints > MaxFeeBasisPoints {
		return ErrInvalidFee
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var platform model.PlatformModel
	if err := e.db.First(&platform).Error; err != nil {
		return fmt.Errorf("failed to load platform config: %w", err)
	}
	if platform.OwnerAddress != addr {
		return ErrNotOwner
	}

	if err := e.db.Model(&platform).Update("fee_basis_points", feeBasisPoints).Error; err != nil {
		return fmt.Errorf("failed to update platform fee: %w", err)
	}

	logger.Info("Platform fee updated to %d bp by %s", feeBasisPoints, addr)

	e.publish(Event{
		Type:    EventPlatformFeeUpdated,
		Address: addr,
		Amount:  feeBasisPoints,
	})

	return nil
}

// GetCampaign 获取活动详情
func (e *Engine) GetCampaign(campaignId int64) (*model.CampaignModel, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var campaign model.CampaignModel
	if err := e.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}
	return &campaign, nil
}

// GetContribution 获取某地址对某活动的贡献记录。
// 活动存在但该地址从未贡献时返回零值记录，与合约里的映射语义一致。
func (e *Engine) GetContribution(campaignId int64, address string) (*model.ContributionModel, error) {
	addr, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.campaignExists(campaignId); err != nil {
		return nil, err
	}

	var contribution model.ContributionModel
	err = e.db.Where("campaign_id = ? AND address = ?", campaignId, addr).First(&contribution).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.ContributionModel{CampaignId: campaignId, Address: addr}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contribution record: %w", err)
	}
	return &contribution, nil
}

// GetCampaignContributors 按首次贡献顺序返回活动的贡献者地址
func (e *Engine) GetCampaignContributors(campaignId int64) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.campaignExists(campaignId); err != nil {
		return nil, err
	}

	var addresses []string
	if err := e.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Order("id ASC").
		Pluck("address", &addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to load contributors: %w", err)
	}
	return addresses, nil
}

// IsCampaignSuccessful 按当前时间判定活动是否成功
func (e *Engine) IsCampaignSuccessful(campaignId int64) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var campaign model.CampaignModel
	if err := e.db.First(&campaign, campaignId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrCampaignNotFound
		}
		return false, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}
	return e.isSuccessful(&campaign), nil
}

// GetPlatformStats 获取平台统计信息
func (e *Engine) GetPlatformStats() (*PlatformStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var platform model.PlatformModel
	if err := e.db.First(&platform).Error; err != nil {
		return nil, fmt.Errorf("failed to load platform config: %w", err)
	}

	var active int64
	if err := e.db.Model(&model.CampaignModel{}).
		Where("deadline > ?", e.now()).
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active campaigns: %w", err)
	}

	return &PlatformStats{
		TotalCampaigns:   platform.TotalCampaigns,
		TotalFundsRaised: platform.TotalFundsRaised,
		ActiveCampaigns:  active,
	}, nil
}

// Platform 获取平台配置
func (e *Engine) Platform() (*model.PlatformModel, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var platform model.PlatformModel
	if err := e.db.First(&platform).Error; err != nil {
		return nil, fmt.Errorf("failed to load platform config: %w", err)
	}
	return &platform, nil
}

// isSuccessful 成功 = 截止时间已过且筹款额达标
func (e *Engine) isSuccessful(c *model.CampaignModel) bool {
	return !e.now().Before(c.Deadline) && c.RaisedAmount >= c.TargetAmount
}

// isFailed 失败 = 截止时间已过且筹款额未达标
func (e *Engine) isFailed(c *model.CampaignModel) bool {
	return !e.now().Before(c.Deadline) && c.RaisedAmount < c.TargetAmount
}

func (e *Engine) campaignExists(campaignId int64) error {
	var count int64
	if err := e.db.Model(&model.CampaignModel{}).Where("id = ?", campaignId).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check campaign %d: %w", campaignId, err)
	}
	if count == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// transfer 执行对外划转，失败只记日志，不影响已提交的账本状态
func (e *Engine) transfer(purpose string, campaignId int64, to string, amount int64) {
	if e.treasury == nil {
		return
	}
	if err := e.treasury.Transfer(purpose, campaignId, to, amount); err != nil {
		logger.Error("Transfer failed: purpose=%s campaign=%d to=%s amount=%d: %v",
			purpose, campaignId, to, amount, err)
	}
}

func (e *Engine) publish(event Event) {
	if e.sink == nil {
		return
	}
	e.sink.Publish(event)
}

// normalizeAddress 校验并规范化地址
func normalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}
