package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cardforge/internal/database"
	"cardforge/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
	clamdAddr string,
	allowedOrigins []string,
) {
	templateStore := database.NewTemplateStore(db)
	templateHandler := NewTemplateHandler(templateStore, asynqClient)
	previewHandler := NewPreviewHandler(db, storageClient)
	employeeHandler := NewEmployeeHandler(db, asynqClient, storageClient)
	assetHandler := NewAssetHandler(storageClient, redisClient, logger, clamdAddr)
	wsHandler := NewWsHandler(redisClient, logger, allowedOrigins)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		templateGroup := v1.Group("/templates")
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.POST("", templateHandler.SaveTemplate)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
			templateGroup.GET("/:id/preview", previewHandler.RenderPreview)
		}

		employeeGroup := v1.Group("/employees")
		{
			employeeGroup.POST("", employeeHandler.CreateEmployee)
			employeeGroup.GET("/:id", employeeHandler.GetEmployee)
			employeeGroup.PUT("/:id/data", employeeHandler.UpdateEmployeeData)
			employeeGroup.POST("/:id/export", employeeHandler.ExportCard)
			employeeGroup.GET("/:id/card", employeeHandler.GetCard)
			employeeGroup.GET("/:id/card-link", employeeHandler.GetCardLink)
		}

		assetGroup := v1.Group("/assets")
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
		}
	}
}
