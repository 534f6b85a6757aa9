package ledger

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blues/cfl/internal/database"
	"github.com/blues/cfl/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa").Hex()
	testCreator = common.HexToAddress("0x0000000000000000000000000000000000000001").Hex()
	testAlice   = common.HexToAddress("0x0000000000000000000000000000000000000002").Hex()
	testBob     = common.HexToAddress("0x0000000000000000000000000000000000000003").Hex()
)

const day = 24 * time.Hour

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type transferCall struct {
	purpose    string
	campaignId int64
	to         string
	amount     int64
}

type fakeTreasury struct {
	mu    sync.Mutex
	calls []transferCall
}

func (f *fakeTreasury) Transfer(purpose string, campaignId int64, to string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transferCall{purpose, campaignId, to, amount})
	return nil
}

func (f *fakeTreasury) callsFor(campaignId int64) []transferCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []transferCall
	for _, call := range f.calls {
		if call.campaignId == campaignId {
			out = append(out, call)
		}
	}
	return out
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T, feeBasisPoints int64) (*Engine, *fakeTreasury, *fakeClock) {
	t.Helper()
	db := openTestDB(t)
	ft := &fakeTreasury{}
	e, err := Init(db, testOwner, feeBasisPoints, ft, nil)
	if err != nil {
		t.Fatalf("failed to init engine: %v", err)
	}
	clock := &fakeClock{t: time.Now()}
	e.now = clock.Now
	return e, ft, clock
}

func TestInitValidation(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db, "not-an-address", 250, nil, nil); err == nil {
		t.Fatalf("expected error for invalid owner address")
	}
	if _, err := Init(db, testOwner, 1001, nil, nil); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if _, err := Init(db, testOwner, 250, nil, nil); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	// 第二次初始化不得覆盖已有配置
	e, err := Init(db, testAlice, 500, nil, nil)
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	platform, err := e.Platform()
	if err != nil {
		t.Fatalf("failed to load platform: %v", err)
	}
	if platform.OwnerAddress != testOwner {
		t.Fatalf("owner changed on re-init: %s", platform.OwnerAddress)
	}
	if platform.FeeBasisPoints != 250 {
		t.Fatalf("fee changed on re-init: %d", platform.FeeBasisPoints)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	e, _, _ := newTestEngine(t, 250)

	// Scenario E
	if _, err := e.CreateCampaign(testCreator, "t", "d", 0, 30); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "t", "d", -5, 30); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for negative target, got %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "t", "d", 1000, 400); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "t", "d", 1000, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for zero duration, got %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "", "d", 1000, 30); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for empty title, got %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "t", "", 1000, 30); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata for empty description, got %v", err)
	}
	if _, err := e.CreateCampaign("bogus", "t", "d", 1000, 30); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}

	// 校验失败不得占用计数器
	stats, err := e.GetPlatformStats()
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.TotalCampaigns != 0 {
		t.Fatalf("expected no campaigns, got %d", stats.TotalCampaigns)
	}
}

func TestCreateCampaignAssignsSequentialIds(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	first, err := e.CreateCampaign(testCreator, "first", "desc", 1000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := e.CreateCampaign(testAlice, "second", "desc", 2000, 60)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first, second)
	}

	campaign, err := e.GetCampaign(first)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.CreatorAddress != testCreator {
		t.Fatalf("unexpected creator %s", campaign.CreatorAddress)
	}
	if campaign.RaisedAmount != 0 || campaign.Withdrawn {
		t.Fatalf("new campaign must start with zero raised and not withdrawn")
	}
	wantDeadline := clock.Now().Add(30 * day)
	if campaign.Deadline.Sub(wantDeadline) > time.Second || wantDeadline.Sub(campaign.Deadline) > time.Second {
		t.Fatalf("unexpected deadline %s", campaign.Deadline)
	}

	platform, err := e.Platform()
	if err != nil {
		t.Fatalf("failed to load platform: %v", err)
	}
	if platform.CampaignCounter != 2 || platform.TotalCampaigns != 2 {
		t.Fatalf("unexpected counters: counter=%d total=%d", platform.CampaignCounter, platform.TotalCampaigns)
	}
}

func TestContributeAccumulatesPerAddress(t *testing.T) {
	e, _, _ := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := e.Contribute(id, testAlice, 100); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	cumulative, err := e.Contribute(id, testAlice, 250)
	if err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if cumulative != 350 {
		t.Fatalf("expected cumulative 350, got %d", cumulative)
	}
	if _, err := e.Contribute(id, testBob, 50); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	// 活动筹款额 == 贡献记录之和
	campaign, err := e.GetCampaign(id)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.RaisedAmount != 400 {
		t.Fatalf("expected raised 400, got %d", campaign.RaisedAmount)
	}

	contribution, err := e.GetContribution(id, testAlice)
	if err != nil {
		t.Fatalf("get contribution failed: %v", err)
	}
	if contribution.Amount != 350 || contribution.Refunded {
		t.Fatalf("unexpected contribution record: %+v", contribution)
	}

	stats, err := e.GetPlatformStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalFundsRaised != 400 {
		t.Fatalf("expected total funds raised 400, got %d", stats.TotalFundsRaised)
	}
}

func TestContributeErrors(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	if _, err := e.Contribute(99, testAlice, 100); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := e.Contribute(id, testAlice, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := e.Contribute(id, "nope", 100); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}

	// Scenario C: 截止后拒绝贡献，即使目标未达成
	clock.Advance(2 * day)
	if _, err := e.Contribute(id, testAlice, 100); !errors.Is(err, ErrCampaignClosed) {
		t.Fatalf("expected ErrCampaignClosed, got %v", err)
	}

	campaign, err := e.GetCampaign(id)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.RaisedAmount != 0 {
		t.Fatalf("rejected contribution must not change raised amount")
	}
}

func TestSuccessfulCampaignSettlement(t *testing.T) {
	// Scenario A
	e, ft, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 600); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if _, err := e.Contribute(id, testBob, 500); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	// 提前达标也不能提现，也不算成功
	successful, err := e.IsCampaignSuccessful(id)
	if err != nil {
		t.Fatalf("successful check failed: %v", err)
	}
	if successful {
		t.Fatalf("campaign must not be successful before its deadline")
	}
	if _, err := e.WithdrawFunds(id, testCreator); !errors.Is(err, ErrCampaignNotSuccessful) {
		t.Fatalf("expected ErrCampaignNotSuccessful before deadline, got %v", err)
	}

	clock.Advance(31 * day)

	successful, err = e.IsCampaignSuccessful(id)
	if err != nil {
		t.Fatalf("successful check failed: %v", err)
	}
	if !successful {
		t.Fatalf("campaign must be successful after deadline with target met")
	}

	// Scenario D: 非创建者提现被拒且状态不变
	if _, err := e.WithdrawFunds(id, testAlice); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	campaign, err := e.GetCampaign(id)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.Withdrawn {
		t.Fatalf("rejected withdrawal must not mark campaign withdrawn")
	}
	if len(ft.callsFor(id)) != 0 {
		t.Fatalf("rejected withdrawal must not trigger transfers")
	}

	result, err := e.WithdrawFunds(id, testCreator)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	wantFee := int64(1100 * 250 / 10000) // 27，余数归创建者
	if result.TotalAmount != 1100 || result.PlatformFee != wantFee || result.CreatorAmount != 1100-wantFee {
		t.Fatalf("unexpected settlement: %+v", result)
	}
	if result.CreatorAmount+result.PlatformFee != result.TotalAmount {
		t.Fatalf("settlement does not add up: %+v", result)
	}

	calls := ft.callsFor(id)
	if len(calls) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(calls))
	}
	if calls[0].purpose != TransferPurposeSettlement || calls[0].to != testCreator || calls[0].amount != 1100-wantFee {
		t.Fatalf("unexpected settlement transfer: %+v", calls[0])
	}
	if calls[1].purpose != TransferPurposePlatformFee || calls[1].to != testOwner || calls[1].amount != wantFee {
		t.Fatalf("unexpected fee transfer: %+v", calls[1])
	}

	// 第二次提现被拒，不再划转
	if _, err := e.WithdrawFunds(id, testCreator); !errors.Is(err, ErrAlreadyWithdrawn) {
		t.Fatalf("expected ErrAlreadyWithdrawn, got %v", err)
	}
	if len(ft.callsFor(id)) != 2 {
		t.Fatalf("second withdrawal must not transfer again")
	}

	// 提现不扣减历史计数
	stats, err := e.GetPlatformStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalFundsRaised != 1100 {
		t.Fatalf("withdrawal must not reduce total funds raised, got %d", stats.TotalFundsRaised)
	}
}

func TestWithdrawWithZeroFee(t *testing.T) {
	e, ft, clock := newTestEngine(t, 0)

	id, err := e.CreateCampaign(testCreator, "t", "d", 500, 10)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 500); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(11 * day)

	result, err := e.WithdrawFunds(id, testCreator)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if result.PlatformFee != 0 || result.CreatorAmount != 500 {
		t.Fatalf("unexpected settlement with zero fee: %+v", result)
	}
	calls := ft.callsFor(id)
	if len(calls) != 1 {
		t.Fatalf("zero fee must not produce a fee transfer, got %d transfers", len(calls))
	}
}

func TestFailedCampaignRefund(t *testing.T) {
	// Scenario B
	e, ft, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 300); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	// 截止前不允许退款
	if _, err := e.RequestRefund(id, testAlice); !errors.Is(err, ErrCampaignNotFailed) {
		t.Fatalf("expected ErrCampaignNotFailed before deadline, got %v", err)
	}

	clock.Advance(2 * day)

	successful, err := e.IsCampaignSuccessful(id)
	if err != nil {
		t.Fatalf("successful check failed: %v", err)
	}
	if successful {
		t.Fatalf("campaign below target must not be successful")
	}

	amount, err := e.RequestRefund(id, testAlice)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if amount != 300 {
		t.Fatalf("expected refund of 300, got %d", amount)
	}

	calls := ft.callsFor(id)
	if len(calls) != 1 || calls[0].purpose != TransferPurposeRefund || calls[0].to != testAlice || calls[0].amount != 300 {
		t.Fatalf("unexpected refund transfer: %+v", calls)
	}

	// 重复退款被拒
	if _, err := e.RequestRefund(id, testAlice); !errors.Is(err, ErrAlreadyRefunded) {
		t.Fatalf("expected ErrAlreadyRefunded, got %v", err)
	}
	if len(ft.callsFor(id)) != 1 {
		t.Fatalf("second refund must not transfer again")
	}

	// 未贡献地址退款被拒
	if _, err := e.RequestRefund(id, testBob); !errors.Is(err, ErrNoContribution) {
		t.Fatalf("expected ErrNoContribution, got %v", err)
	}

	// 退款不扣减活动筹款额和平台历史总额
	campaign, err := e.GetCampaign(id)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	if campaign.RaisedAmount != 300 {
		t.Fatalf("refund must not reduce raised amount, got %d", campaign.RaisedAmount)
	}
	stats, err := e.GetPlatformStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalFundsRaised != 300 {
		t.Fatalf("refund must not reduce total funds raised, got %d", stats.TotalFundsRaised)
	}
}

func TestRefundRejectedForSuccessfulCampaign(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 100, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 100); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)

	if _, err := e.RequestRefund(id, testAlice); !errors.Is(err, ErrCampaignNotFailed) {
		t.Fatalf("expected ErrCampaignNotFailed for successful campaign, got %v", err)
	}
}

func TestWithdrawRejectedForFailedCampaign(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 300); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)

	if _, err := e.WithdrawFunds(id, testCreator); !errors.Is(err, ErrCampaignNotSuccessful) {
		t.Fatalf("expected ErrCampaignNotSuccessful for failed campaign, got %v", err)
	}
}

func TestGetCampaignContributorsOrder(t *testing.T) {
	e, _, _ := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testBob, 10); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 20); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	// 重复贡献不改变首次顺序
	if _, err := e.Contribute(id, testBob, 30); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}

	contributors, err := e.GetCampaignContributors(id)
	if err != nil {
		t.Fatalf("get contributors failed: %v", err)
	}
	if len(contributors) != 2 || contributors[0] != testBob || contributors[1] != testAlice {
		t.Fatalf("unexpected contributor order: %v", contributors)
	}

	if _, err := e.GetCampaignContributors(99); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestGetContributionZeroValueForUnknownAddress(t *testing.T) {
	e, _, _ := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	contribution, err := e.GetContribution(id, testAlice)
	if err != nil {
		t.Fatalf("get contribution failed: %v", err)
	}
	if contribution.Amount != 0 || contribution.Refunded {
		t.Fatalf("expected zero-value contribution, got %+v", contribution)
	}

	if _, err := e.GetContribution(99, testAlice); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}

func TestGetPlatformStatsActiveCount(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	if _, err := e.CreateCampaign(testCreator, "short", "d", 1000, 1); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.CreateCampaign(testCreator, "long", "d", 1000, 30); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stats, err := e.GetPlatformStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.ActiveCampaigns != 2 {
		t.Fatalf("expected 2 active campaigns, got %d", stats.ActiveCampaigns)
	}

	clock.Advance(2 * day)
	stats, err = e.GetPlatformStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.ActiveCampaigns != 1 {
		t.Fatalf("expected 1 active campaign after first deadline, got %d", stats.ActiveCampaigns)
	}
	if stats.TotalCampaigns != 2 {
		t.Fatalf("total campaigns must be historical, got %d", stats.TotalCampaigns)
	}
}

func TestSetPlatformFee(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	if err := e.SetPlatformFee(testAlice, 100); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := e.SetPlatformFee(testOwner, 1001); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
	if err := e.SetPlatformFee(testOwner, -1); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee for negative fee, got %v", err)
	}
	if err := e.SetPlatformFee(testOwner, 1000); err != nil {
		t.Fatalf("set fee failed: %v", err)
	}

	// 新费率作用于后续结算
	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 1000); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)

	result, err := e.WithdrawFunds(id, testCreator)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if result.PlatformFee != 100 || result.CreatorAmount != 900 {
		t.Fatalf("expected 10%% fee, got %+v", result)
	}
}

func TestConcurrentContributions(t *testing.T) {
	e, _, _ := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 100000, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	addrs := []string{testAlice, testBob, testCreator}
	const perAddr = 10
	var wg sync.WaitGroup
	for _, addr := range addrs {
		addr := addr
		for i := 0; i < perAddr; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := e.Contribute(id, addr, 7); err != nil {
					t.Errorf("contribute failed: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	campaign, err := e.GetCampaign(id)
	if err != nil {
		t.Fatalf("get campaign failed: %v", err)
	}
	want := int64(len(addrs) * perAddr * 7)
	if campaign.RaisedAmount != want {
		t.Fatalf("expected raised %d, got %d", want, campaign.RaisedAmount)
	}
	for _, addr := range addrs {
		contribution, err := e.GetContribution(id, addr)
		if err != nil {
			t.Fatalf("get contribution failed: %v", err)
		}
		if contribution.Amount != perAddr*7 {
			t.Fatalf("expected %d for %s, got %d", perAddr*7, addr, contribution.Amount)
		}
	}
}

func TestConcurrentWithdrawalsOnlyOneSucceeds(t *testing.T) {
	e, ft, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 100, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 100); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.WithdrawFunds(id, testCreator)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAlreadyWithdrawn):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != attempts-1 {
		t.Fatalf("expected exactly one successful withdrawal, got %d success / %d rejected", succeeded, rejected)
	}
	if len(ft.callsFor(id)) != 2 {
		t.Fatalf("expected exactly one settlement transfer pair, got %d calls", len(ft.callsFor(id)))
	}
}

func TestEventsPublished(t *testing.T) {
	db := openTestDB(t)
	sink := &captureSink{}
	e, err := Init(db, testOwner, 250, nil, sink)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	clock := &fakeClock{t: time.Now()}
	e.now = clock.Now

	id, err := e.CreateCampaign(testCreator, "t", "d", 100, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 100); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)
	if _, err := e.WithdrawFunds(id, testCreator); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	types := sink.types()
	want := []EventType{EventCampaignCreated, EventContributionReceived, EventFundsWithdrawn}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i, typ := range want {
		if types[i] != typ {
			t.Fatalf("expected event %s at position %d, got %s", typ, i, types[i])
		}
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Publish(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// 确认退款记录与贡献记录保持一致
func TestRefundRecordsPersisted(t *testing.T) {
	e, _, clock := newTestEngine(t, 250)

	id, err := e.CreateCampaign(testCreator, "t", "d", 1000, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := e.Contribute(id, testAlice, 120); err != nil {
		t.Fatalf("contribute failed: %v", err)
	}
	clock.Advance(2 * day)
	if _, err := e.RequestRefund(id, testAlice); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var records []model.RefundRecordModel
	if err := e.db.Where("campaign_id = ?", id).Find(&records).Error; err != nil {
		t.Fatalf("failed to load refund records: %v", err)
	}
	if len(records) != 1 || records[0].Address != testAlice || records[0].Amount != 120 {
		t.Fatalf("unexpected refund records: %+v", records)
	}
}
