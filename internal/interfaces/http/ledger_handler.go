package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// LedgerHandler expone el motor de inventario: recepciones y ventas.
type LedgerHandler struct {
	uc *inventory.LedgerUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *inventory.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordStockReceipt godoc
// @Summary      Registrar recepción de stock
// @Description  Suma la cantidad al stock y recalcula el costo promedio ponderado.
// @Tags         stock-receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockReceiptRequest  true  "product_id, quantity, unit_purchase_price"
// @Success      201   {object}  dto.StockReceiptResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-receipts [post]
func (h *LedgerHandler) RecordStockReceipt(c *fiber.Ctx) error {
	var in dto.CreateStockReceiptRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	receipt, product, err := h.uc.RecordStockReceipt(c.UserContext(), inventory.StockReceiptInput{
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		UnitPurchasePrice: in.UnitPurchasePrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receiptResult(receipt, product))
}

// ReverseStockReceipt godoc
// @Summary      Reversar recepción de stock
// @Description  Elimina la recepción y descuenta su cantidad (mínimo 0).
// @Tags         stock-receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.StockReceiptResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-receipts/{id} [delete]
func (h *LedgerHandler) ReverseStockReceipt(c *fiber.Ctx) error {
	receipt, product, err := h.uc.ReverseStockReceipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(receiptResult(receipt, product))
}

// GetStockReceipt godoc
// @Summary      Obtener recepción
// @Tags         stock-receipts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.StockReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-receipts/{id} [get]
func (h *LedgerHandler) GetStockReceipt(c *fiber.Ctx) error {
	r, err := h.uc.GetStockReceipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockReceiptFromEntity(r))
}

// ListStockReceipts godoc
// @Summary      Listar recepciones (más recientes primero)
// @Tags         stock-receipts
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Success      200  {object}  dto.ListResponse[dto.StockReceiptResponse]
// @Router       /api/stock-receipts [get]
func (h *LedgerHandler) ListStockReceipts(c *fiber.Ctx) error {
	var f dto.EventFilter
	if ok, err := parseQuery(c, &f); !ok {
		return err
	}
	list, err := h.uc.ListStockReceipts(c.UserContext(), f.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockReceiptResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.StockReceiptFromEntity(r))
	}
	return c.JSON(dto.NewList(out))
}

// RecordSale godoc
// @Summary      Registrar venta
// @Description  Descuenta stock; la ganancia se congela con el costo promedio vigente.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "product_id, quantity, unit_selling_price"
// @Success      201   {object}  dto.SaleResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK"
// @Router       /api/sales [post]
func (h *LedgerHandler) RecordSale(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	sale, product, err := h.uc.RecordSale(c.UserContext(), inventory.SaleInput{
		ProductID:        in.ProductID,
		Quantity:         in.Quantity,
		UnitSellingPrice: in.UnitSellingPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saleResult(sale, product))
}

// ReverseSale godoc
// @Summary      Reversar venta
// @Description  Elimina la venta y devuelve su cantidad al stock.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResult
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *LedgerHandler) ReverseSale(c *fiber.Ctx) error {
	sale, product, err := h.uc.ReverseSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(saleResult(sale, product))
}

// GetSale godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *LedgerHandler) GetSale(c *fiber.Ctx) error {
	s, err := h.uc.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SaleFromEntity(s))
}

// ListSales godoc
// @Summary      Listar ventas (más recientes primero)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Success      200  {object}  dto.ListResponse[dto.SaleResponse]
// @Router       /api/sales [get]
func (h *LedgerHandler) ListSales(c *fiber.Ctx) error {
	var f dto.EventFilter
	if ok, err := parseQuery(c, &f); !ok {
		return err
	}
	list, err := h.uc.ListSales(c.UserContext(), f.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.SaleFromEntity(s))
	}
	return c.JSON(dto.NewList(out))
}

func receiptResult(r *entity.StockReceipt, p *entity.Product) dto.StockReceiptResult {
	return dto.StockReceiptResult{StockReceipt: dto.StockReceiptFromEntity(r), Product: dto.ProductFromEntity(p)}
}

func saleResult(s *entity.SaleRecord, p *entity.Product) dto.SaleResult {
	return dto.SaleResult{Sale: dto.SaleFromEntity(s), Product: dto.ProductFromEntity(p)}
}
