package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardforge/internal/storage"
)

// 每个客户端 IP 每分钟的上传上限。
const uploadRateLimit = 30

// AssetHandler 负责模板背景图与员工照片的上传和访问。
// 所有对象都落在 assets/<kind>/ 前缀下，kind 为 background 或 photo。
type AssetHandler struct {
	Storage     *storage.Client
	RedisClient *redis.Client
	Logger      *slog.Logger
	ClamdAddr   string
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(storageClient *storage.Client, redisClient *redis.Client, logger *slog.Logger, clamdAddr string) *AssetHandler {
	return &AssetHandler{
		Storage:     storageClient,
		RedisClient: redisClient,
		Logger:      logger,
		ClamdAddr:   clamdAddr,
	}
}

func assetKind(c *gin.Context) (string, bool) {
	kind := c.DefaultPostForm("kind", c.DefaultQuery("kind", "background"))
	if kind != "background" && kind != "photo" {
		return "", false
	}
	return kind, true
}

// UploadAsset 处理图片上传，并在写入对象存储前扫描病毒。
// POST /v1/assets
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()

	if h.RedisClient != nil {
		key := fmt.Sprintf("upload_rate:%s", c.ClientIP())
		ok, err := allowRate(ctx, h.RedisClient, key, uploadRateLimit, time.Minute)
		if err != nil {
			h.Logger.Warn("upload rate check failed", slog.Any("error", err))
		} else if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many uploads, slow down"})
			return
		}
	}

	kind, ok := assetKind(c)
	if !ok {
		BadRequest(c, "kind must be background or photo")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	clamdClient := clamd.NewClamd(h.ClamdAddr)

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		h.Logger.Error("scan file", slog.String("error", err.Error()))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	ext := strings.ToLower(path.Ext(file.Filename))
	if ext == "" {
		ext = ".png"
	}
	objectKey := fmt.Sprintf("assets/%s/%s%s", kind, uuid.NewString(), ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := h.Storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.Logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

// ListAssets 列出某一类资产，按修改时间倒序。
// GET /v1/assets?kind=background&limit=60
func (h *AssetHandler) ListAssets(c *gin.Context) {
	kind, ok := assetKind(c)
	if !ok {
		BadRequest(c, "kind must be background or photo")
		return
	}

	limitStr := c.DefaultQuery("limit", "60")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 60
	}
	if limit > 200 {
		limit = 200
	}

	prefix := fmt.Sprintf("assets/%s/", kind)
	objects, err := h.Storage.ListObjects(c.Request.Context(), prefix, limit)
	if err != nil {
		h.Logger.Error("list assets", slog.String("error", err.Error()))
		Internal(c, "failed to list assets")
		return
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		url, err := h.Storage.GeneratePresignedURL(c.Request.Context(), obj.Key, 10*time.Minute)
		if err != nil {
			h.Logger.Error("generate asset url", slog.String("objectKey", obj.Key), slog.String("error", err.Error()))
			continue
		}
		items = append(items, gin.H{
			"objectKey":    obj.Key,
			"previewUrl":   url,
			"size":         obj.Size,
			"lastModified": obj.LastModified,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAssetURL 返回资产的临时预签名 URL。
// GET /v1/assets/url?key=assets/background/xxx.png
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	objectKey := c.Query("key")
	if !isValidAssetObjectKey(objectKey) {
		BadRequest(c, "invalid object key")
		return
	}

	signedURL, err := h.Storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.Logger.Error("generate presigned url", slog.String("error", err.Error()))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}
