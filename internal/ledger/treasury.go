package ledger

// 划转用途
const (
	TransferPurposeSettlement  = "settlement"   // 成功活动结算给创建者
	TransferPurposePlatformFee = "platform_fee" // 平台手续费
	TransferPurposeRefund      = "refund"       // 失败活动退款
)

// Treasury 对外资金划转通道。
// 引擎只在账本事务提交之后调用它，划转失败不会回滚已提交的结算状态，
// 因此同一笔结算不可能被重复触发。
type Treasury interface {
	Transfer(purpose string, campaignId int64, to string, amount int64) error
}
