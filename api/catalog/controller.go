/*
Package catalog - 商品目录 API 控制器

控制器只做三件事: 绑定参数、通过 mediator 发送请求、把 Result 写成 HTTP 响应。

错误处理原则:
 1. 参数绑定错误: response.HandleError 直接返回 400
 2. Result 的失败分支: response.HandleResult（校验失败 400，业务失败按路由指定）
 3. 处理器返回的 error: response.HandleAppError 按错误码映射（并发冲突 409）
*/
package catalog

import (
	"net/http"
	"strconv"

	"catalog/api/response"
	app "catalog/application/catalog"
	"catalog/application/mediator"

	"github.com/gin-gonic/gin"
)

// Controller 商品目录控制器
type Controller struct {
	sender mediator.Sender
}

// NewController 创建商品目录控制器
func NewController(sender mediator.Sender) *Controller {
	return &Controller{sender: sender}
}

// RegisterRoutes 注册商品目录路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories")
	{
		categories.POST("", c.CreateCategory)
		categories.GET("", c.ListCategories)
	}

	products := router.Group("/products")
	{
		products.POST("", c.CreateProduct)
		products.GET("", c.ListProducts)
		products.GET("/:id", c.GetProduct)
		products.PUT("/:id", c.UpdateProduct)
		products.POST("/:id/stock", c.AdjustStock)
		products.DELETE("/:id", c.DeleteProduct)
		products.GET("/:id/history", c.GetProductHistory)
	}
}

// send dispatches req and writes whichever outcome comes back.
func send[T any](ctx *gin.Context, s mediator.Sender, req mediator.Request, o response.Outcome) {
	res, err := mediator.Send[T](ctx.Request.Context(), s, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleResult(ctx, res, o)
}

// CreateCategory 创建分类
// POST /api/v1/categories
func (c *Controller) CreateCategory(ctx *gin.Context) {
	var req app.CreateCategory
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	send[app.CategoryResponse](ctx, c.sender, req, response.Outcome{
		Status:  http.StatusCreated,
		Message: "category created successfully",
	})
}

// ListCategories 列出分类
// GET /api/v1/categories
func (c *Controller) ListCategories(ctx *gin.Context) {
	send[[]app.CategoryResponse](ctx, c.sender, app.ListCategories{}, response.Outcome{})
}

// CreateProduct 创建商品
// POST /api/v1/products
func (c *Controller) CreateProduct(ctx *gin.Context) {
	var req app.CreateProduct
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	send[app.ProductResponse](ctx, c.sender, req, response.Outcome{
		Status:  http.StatusCreated,
		Message: "product created successfully",
	})
}

// ListProducts 按条件列出商品
// GET /api/v1/products?category_id=&min_price=&max_price=&name=&in_stock=
func (c *Controller) ListProducts(ctx *gin.Context) {
	var req app.ListProducts
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}
	send[app.ProductListResponse](ctx, c.sender, req, response.Outcome{})
}

// GetProduct 获取商品
// GET /api/v1/products/:id
func (c *Controller) GetProduct(ctx *gin.Context) {
	send[app.ProductResponse](ctx, c.sender, app.GetProduct{ID: ctx.Param("id")}, response.Outcome{
		FailureStatus: http.StatusNotFound,
	})
}

// UpdateProduct 修改商品，body 中的 version 必须是最近一次读取到的版本
// PUT /api/v1/products/:id
func (c *Controller) UpdateProduct(ctx *gin.Context) {
	var req app.UpdateProduct
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	req.ID = ctx.Param("id")
	send[app.ProductResponse](ctx, c.sender, req, response.Outcome{
		Message:       "product updated successfully",
		FailureStatus: http.StatusNotFound,
	})
}

// AdjustStock 增减库存
// POST /api/v1/products/:id/stock
func (c *Controller) AdjustStock(ctx *gin.Context) {
	var req app.AdjustStock
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	req.ID = ctx.Param("id")
	send[app.ProductResponse](ctx, c.sender, req, response.Outcome{
		Message:       "stock adjusted successfully",
		FailureStatus: http.StatusUnprocessableEntity,
	})
}

// DeleteProduct 软删除商品
// DELETE /api/v1/products/:id?version=N
func (c *Controller) DeleteProduct(ctx *gin.Context) {
	version, err := strconv.ParseInt(ctx.Query("version"), 10, 64)
	if err != nil {
		response.HandleError(ctx, err, "version query parameter is required", http.StatusBadRequest)
		return
	}
	send[app.ProductResponse](ctx, c.sender, app.DeleteProduct{ID: ctx.Param("id"), Version: version}, response.Outcome{
		Message:       "product deleted successfully",
		FailureStatus: http.StatusNotFound,
	})
}

// GetProductHistory 读取商品审计轨迹
// GET /api/v1/products/:id/history
func (c *Controller) GetProductHistory(ctx *gin.Context) {
	send[[]app.HistoryEntryResponse](ctx, c.sender, app.GetProductHistory{ID: ctx.Param("id")}, response.Outcome{
		FailureStatus: http.StatusNotFound,
	})
}
