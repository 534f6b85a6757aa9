package ledger

// EventType 账本事件类型
type EventType string

const (
	EventCampaignCreated      EventType = "campaign_created"
	EventContributionReceived EventType = "contribution_received"
	EventFundsWithdrawn       EventType = "funds_withdrawn"
	EventRefundIssued         EventType = "refund_issued"
	EventPlatformFeeUpdated   EventType = "platform_fee_updated"
)

// Event 账本事件，状态变更提交后发布
type Event struct {
	Type       EventType              `json:"type"`
	CampaignId int64                  `json:"campaign_id"`
	Address    string                 `json:"address"`
	Amount     int64                  `json:"amount"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EventSink 事件接收器，由事件分发器实现
type EventSink interface {
	Publish(event Event)
}
