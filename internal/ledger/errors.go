package ledger

import "errors"

// 参数校验错误，调用方修正输入后可重试
var (
	ErrInvalidTarget   = errors.New("target amount must be greater than zero")
	ErrInvalidDuration = errors.New("duration must be between 1 and 365 days")
	ErrInvalidMetadata = errors.New("title and description must not be empty")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrInvalidAddress  = errors.New("invalid hex address")
	ErrInvalidFee      = errors.New("fee basis points must be between 0 and 1000")
)

// 状态前置条件错误，状态不变时重试必然再次失败
var (
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrCampaignClosed        = errors.New("campaign deadline has passed")
	ErrNotCreator            = errors.New("caller is not the campaign creator")
	ErrCampaignNotSuccessful = errors.New("campaign is not successful")
	ErrAlreadyWithdrawn      = errors.New("campaign funds already withdrawn")
	ErrCampaignNotFailed     = errors.New("campaign has not failed")
	ErrNoContribution        = errors.New("no contribution found for this address")
	ErrAlreadyRefunded       = errors.New("contribution already refunded")
	ErrNotOwner              = errors.New("caller is not the platform owner")
)
