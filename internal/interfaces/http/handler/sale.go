package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/salescrm/backend/internal/application/sales"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/interfaces/http/dto"
	"github.com/salescrm/backend/internal/interfaces/http/middleware"
)

// ListSalesQuery filters the sale list and the export
type ListSalesQuery struct {
	dto.ListRequest
	Search        string `form:"search" binding:"max=100"`
	SalespersonID string `form:"salesperson_id"`
	PrimPeriodID  string `form:"prim_period_id"`
	SaleType      string `form:"sale_type" binding:"omitempty,oneof=satis kapora manuel"`
	Status        string `form:"status" binding:"omitempty,oneof=active cancelled"`
	PrimStatus    string `form:"prim_status" binding:"omitempty,oneof=paid unpaid"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
}

// SaleRequest creates or updates a sale
type SaleRequest struct {
	ContractNo        string          `json:"contract_no" binding:"required,contract_no"`
	CustomerName      string          `json:"customer_name" binding:"required,max=200"`
	CustomerPhone     string          `json:"customer_phone" binding:"max=30"`
	BlockNo           string          `json:"block_no" binding:"max=20"`
	ApartmentNo       string          `json:"apartment_no" binding:"max=20"`
	PeriodNo          string          `json:"period_no" binding:"max=50"`
	SaleType          string          `json:"sale_type" binding:"required,oneof=satis kapora manuel"`
	SaleDate          string          `json:"sale_date"`
	KaporaDate        string          `json:"kapora_date"`
	ContractDate      string          `json:"contract_date"`
	ListPrice         decimal.Decimal `json:"list_price"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	ActivitySalePrice decimal.Decimal `json:"activity_sale_price"`
	PaymentMethod     string          `json:"payment_method" binding:"max=100"`
	SalespersonID     string          `json:"salesperson_id"`
	Notes             string          `json:"notes" binding:"max=2000"`
}

// CancelSaleRequest cancels a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PrimStatusRequest marks the prim of a sale paid or unpaid
type PrimStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=paid unpaid"`
}

// ConvertSaleRequest turns a kapora into a normal sale
type ConvertSaleRequest struct {
	SaleDate          string           `json:"sale_date" binding:"required"`
	ContractDate      string           `json:"contract_date"`
	ActivitySalePrice *decimal.Decimal `json:"activity_sale_price"`
}

// TransferSaleRequest moves a sale to another salesperson
type TransferSaleRequest struct {
	SalespersonID string `json:"salesperson_id" binding:"required,uuid"`
	Reason        string `json:"reason" binding:"max=500"`
}

// SaleNotesRequest replaces the notes of a sale
type SaleNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// SaleHandler handles sale HTTP requests
type SaleHandler struct {
	BaseHandler
	saleService *sales.Service
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *sales.Service, loc *time.Location) *SaleHandler {
	return &SaleHandler{BaseHandler: newBaseHandler(loc), saleService: saleService}
}

func saleViewer(c *gin.Context) sales.Viewer {
	return sales.Viewer{
		UserID:  middleware.GetJWTUserUUID(c),
		ReadAll: middleware.HasPermission(c, identity.PermSalesReadAll),
	}
}

func (h *SaleHandler) listInput(c *gin.Context) (sales.ListInput, bool) {
	var q ListSalesQuery
	if !h.bindQuery(c, &q) {
		return sales.ListInput{}, false
	}
	q.Normalize()
	salespersonID, ok := h.optionalUUID(c, "salesperson_id", q.SalespersonID)
	if !ok {
		return sales.ListInput{}, false
	}
	periodID, ok := h.optionalUUID(c, "prim_period_id", q.PrimPeriodID)
	if !ok {
		return sales.ListInput{}, false
	}
	from, ok := h.optionalDate(c, "start_date", q.StartDate)
	if !ok {
		return sales.ListInput{}, false
	}
	to, ok := h.optionalDate(c, "end_date", q.EndDate)
	if !ok {
		return sales.ListInput{}, false
	}
	return sales.ListInput{
		Search:        q.Search,
		SalespersonID: salespersonID,
		PrimPeriodID:  periodID,
		SaleType:      q.SaleType,
		Status:        q.Status,
		PrimStatus:    q.PrimStatus,
		DateFrom:      from,
		DateTo:        endOfDay(to),
		Page:          q.Page,
		PageSize:      q.PageSize,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
	}, true
}

func (h *SaleHandler) saleInput(c *gin.Context) (sales.SaleInput, bool) {
	var req SaleRequest
	if !h.bindJSON(c, &req) {
		return sales.SaleInput{}, false
	}
	saleDate, ok := h.optionalDate(c, "sale_date", req.SaleDate)
	if !ok {
		return sales.SaleInput{}, false
	}
	kaporaDate, ok := h.optionalDate(c, "kapora_date", req.KaporaDate)
	if !ok {
		return sales.SaleInput{}, false
	}
	contractDate, ok := h.optionalDate(c, "contract_date", req.ContractDate)
	if !ok {
		return sales.SaleInput{}, false
	}
	salespersonID, ok := h.optionalUUID(c, "salesperson_id", req.SalespersonID)
	if !ok {
		return sales.SaleInput{}, false
	}
	return sales.SaleInput{
		ContractNo:        req.ContractNo,
		CustomerName:      req.CustomerName,
		CustomerPhone:     req.CustomerPhone,
		BlockNo:           req.BlockNo,
		ApartmentNo:       req.ApartmentNo,
		PeriodNo:          req.PeriodNo,
		SaleType:          req.SaleType,
		SaleDate:          saleDate,
		KaporaDate:        kaporaDate,
		ContractDate:      contractDate,
		ListPrice:         req.ListPrice,
		DiscountRate:      req.DiscountRate,
		ActivitySalePrice: req.ActivitySalePrice,
		PaymentMethod:     req.PaymentMethod,
		SalespersonID:     salespersonID,
		Notes:             req.Notes,
	}, true
}

// List handles GET /api/sales
func (h *SaleHandler) List(c *gin.Context) {
	input, ok := h.listInput(c)
	if !ok {
		return
	}
	page, err := h.saleService.List(c.Request.Context(), saleViewer(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get handles GET /api/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.Get(c.Request.Context(), saleViewer(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Create handles POST /api/sales
func (h *SaleHandler) Create(c *gin.Context) {
	input, ok := h.saleInput(c)
	if !ok {
		return
	}
	sale, err := h.saleService.Create(c.Request.Context(), saleViewer(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Update handles PUT /api/sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	input, ok := h.saleInput(c)
	if !ok {
		return
	}
	sale, err := h.saleService.Update(c.Request.Context(), saleViewer(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel handles PUT /api/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CancelSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.Cancel(c.Request.Context(), saleViewer(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Restore handles PUT /api/sales/:id/restore
func (h *SaleHandler) Restore(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.Restore(c.Request.Context(), saleViewer(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// SetPrimStatus handles PUT /api/sales/:id/prim-status
func (h *SaleHandler) SetPrimStatus(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PrimStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.SetPrimStatus(c.Request.Context(), saleViewer(c), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Convert handles PUT /api/sales/:id/convert
func (h *SaleHandler) Convert(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ConvertSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	saleDate, ok := h.requiredDate(c, "sale_date", req.SaleDate)
	if !ok {
		return
	}
	contractDate, ok := h.optionalDate(c, "contract_date", req.ContractDate)
	if !ok {
		return
	}
	sale, err := h.saleService.Convert(c.Request.Context(), saleViewer(c), id, sales.ConvertInput{
		SaleDate:          saleDate,
		ContractDate:      contractDate,
		ActivitySalePrice: req.ActivitySalePrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Transfer handles PUT /api/sales/:id/transfer
func (h *SaleHandler) Transfer(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req TransferSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	to, ok := h.optionalUUID(c, "salesperson_id", req.SalespersonID)
	if !ok {
		return
	}
	sale, err := h.saleService.Transfer(c.Request.Context(), saleViewer(c), id, sales.TransferInput{
		SalespersonID: *to,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// SetNotes handles PUT /api/sales/:id/notes
func (h *SaleHandler) SetNotes(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SaleNotesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.SetNotes(c.Request.Context(), saleViewer(c), id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete handles DELETE /api/sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.saleService.Delete(c.Request.Context(), saleViewer(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Satış silindi")
}

// Export handles GET /api/sales/export
func (h *SaleHandler) Export(c *gin.Context) {
	input, ok := h.listInput(c)
	if !ok {
		return
	}
	file, err := h.saleService.Export(c.Request.Context(), saleViewer(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendFile(c, file.FileName, file.ContentType, file.Data)
}
