package router

import (
	"github.com/blues/cfl/internal/config"
	"github.com/blues/cfl/internal/handler"
	"github.com/blues/cfl/internal/ledger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, engine *ledger.Engine, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdfunding-ledger",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(engine, db)
		contributeHandler := handler.NewContributeHandler(engine)
		settlementHandler := handler.NewSettlementHandler(engine, db)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/contributors", campaignHandler.GetCampaignContributors)
			campaigns.GET("/:id/successful", campaignHandler.IsCampaignSuccessful)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.POST("/:id/contributions", contributeHandler.Contribute)
			campaigns.GET("/:id/contributions", campaignHandler.GetCampaignContributions)
			campaigns.GET("/:id/contributions/:address", contributeHandler.GetContribution)
			campaigns.POST("/:id/withdraw", settlementHandler.Withdraw)
			campaigns.POST("/:id/refund", settlementHandler.Refund)
			campaigns.GET("/:id/refunds", settlementHandler.GetCampaignRefunds)
			campaigns.GET("/:id/settlement", settlementHandler.GetCampaignSettlement)
		}

		// 平台相关路由
		platformHandler := handler.NewPlatformHandler(engine)
		platform := v1.Group("/platform")
		{
			platform.GET("/stats", platformHandler.GetPlatformStats)
			platform.PUT("/fee", platformHandler.SetPlatformFee)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
