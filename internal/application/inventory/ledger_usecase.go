package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Operaciones del motor (usadas en OpError, logs y métricas).
const (
	OpRecordStockReceipt  = "record_stock_receipt"
	OpReverseStockReceipt = "reverse_stock_receipt"
	OpRecordSale          = "record_sale"
	OpReverseSale         = "reverse_sale"
)

// ReversalCostPolicy define qué pasa con el costo promedio al reversar una recepción.
type ReversalCostPolicy string

const (
	// ReversalCostRecompute reproduce las recepciones y ventas vigentes para recalcular el costo.
	ReversalCostRecompute ReversalCostPolicy = "recompute"
	// ReversalCostKeep deja el costo promedio sin cambios.
	ReversalCostKeep ReversalCostPolicy = "keep"
)

// LedgerConfig dependencias opcionales del motor. Los campos nil toman un valor no-op.
type LedgerConfig struct {
	ReversalCost ReversalCostPolicy
	Cache        ports.DashboardCache
	Metrics      ports.LedgerMetrics
	Logger       *logger.Logger
	Now          func() time.Time
}

// LedgerUseCase es el motor de inventario: registra y reversa recepciones y ventas
// manteniendo stock y costo promedio del producto. Cada operación corre en una sola
// transacción con la fila del producto bloqueada (SELECT FOR UPDATE).
type LedgerUseCase struct {
	txRunner     TxRunner
	receiptRepo  repository.StockReceiptRepository
	saleRepo     repository.SaleRecordRepository
	reversalCost ReversalCostPolicy
	cache        ports.DashboardCache
	metrics      ports.LedgerMetrics
	log          *logger.Logger
	now          func() time.Time
}

// NewLedgerUseCase construye el motor. receiptRepo y saleRepo se usan solo para lecturas fuera de transacción.
func NewLedgerUseCase(
	txRunner TxRunner,
	receiptRepo repository.StockReceiptRepository,
	saleRepo repository.SaleRecordRepository,
	cfg LedgerConfig,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner:     txRunner,
		receiptRepo:  receiptRepo,
		saleRepo:     saleRepo,
		reversalCost: cfg.ReversalCost,
		cache:        cfg.Cache,
		metrics:      cfg.Metrics,
		log:          cfg.Logger,
		now:          cfg.Now,
	}
	if uc.reversalCost == "" {
		uc.reversalCost = ReversalCostRecompute
	}
	if uc.cache == nil {
		uc.cache = ports.NoopDashboardCache{}
	}
	if uc.metrics == nil {
		uc.metrics = ports.NoopLedgerMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// StockReceiptInput entrada para registrar una recepción.
type StockReceiptInput struct {
	ProductID         string
	Quantity          decimal.Decimal
	UnitPurchasePrice decimal.Decimal
}

// SaleInput entrada para registrar una venta.
type SaleInput struct {
	ProductID        string
	Quantity         decimal.Decimal
	UnitSellingPrice decimal.Decimal
}

// RecordStockReceipt suma la cantidad al stock y mezcla el costo de entrada en el costo promedio.
func (uc *LedgerUseCase) RecordStockReceipt(ctx context.Context, in StockReceiptInput) (*entity.StockReceipt, *entity.Product, error) {
	start := uc.now()
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) || in.UnitPurchasePrice.LessThan(decimal.Zero) ||
		!inventory.FitsScale(in.Quantity) || !inventory.FitsScale(in.UnitPurchasePrice) {
		return nil, nil, uc.fail(OpRecordStockReceipt, "product", in.ProductID, start, domain.ErrInvalidInput)
	}

	var (
		receipt *entity.StockReceipt
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		receiptRepo repository.StockReceiptRepository,
		_ repository.SaleRecordRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		now := uc.now().UTC()
		newQty := p.QuantityOnHand.Add(in.Quantity)
		newCost := inventory.CostCalculator(p.QuantityOnHand, p.AverageCost, in.Quantity, in.UnitPurchasePrice)

		r := &entity.StockReceipt{
			ID:                uuid.New().String(),
			ProductID:         p.ID,
			Quantity:          in.Quantity,
			UnitPurchasePrice: in.UnitPurchasePrice,
			TotalCost:         in.Quantity.Mul(in.UnitPurchasePrice).Round(inventory.CostScale),
			CreatedAt:         now,
		}
		if err := receiptRepo.Create(ctx, r); err != nil {
			return err
		}
		if err := productRepo.UpdateLedger(ctx, p.ID, newQty, newCost); err != nil {
			return err
		}
		p.QuantityOnHand = newQty
		p.AverageCost = newCost
		p.UpdatedAt = now
		receipt, product = r, p
		return nil
	})
	if err != nil {
		return nil, nil, uc.fail(OpRecordStockReceipt, "product", in.ProductID, start, err)
	}
	uc.committed(ctx, OpRecordStockReceipt, product, start)
	return receipt, product, nil
}

// ReverseStockReceipt elimina la recepción y descuenta su cantidad del stock (sin bajar de 0).
// Con ReversalCostRecompute el costo promedio se recalcula sobre las recepciones restantes.
func (uc *LedgerUseCase) ReverseStockReceipt(ctx context.Context, receiptID string) (*entity.StockReceipt, *entity.Product, error) {
	start := uc.now()
	if receiptID == "" {
		return nil, nil, uc.fail(OpReverseStockReceipt, "stock_receipt", receiptID, start, domain.ErrInvalidInput)
	}

	var (
		receipt *entity.StockReceipt
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		receiptRepo repository.StockReceiptRepository,
		saleRepo repository.SaleRecordRepository,
	) error {
		r, err := receiptRepo.GetByID(ctx, receiptID)
		if err != nil {
			return err
		}
		p, err := productRepo.GetForUpdate(ctx, r.ProductID)
		if err != nil {
			return err
		}
		// Con la fila bloqueada, Delete falla con ErrNotFound si otra reversa ganó la carrera.
		if err := receiptRepo.Delete(ctx, r.ID); err != nil {
			return err
		}

		newQty := decimal.Max(decimal.Zero, p.QuantityOnHand.Sub(r.Quantity))
		newCost := p.AverageCost
		if uc.reversalCost == ReversalCostRecompute {
			newCost, err = replayCost(ctx, p.ID, receiptRepo, saleRepo)
			if err != nil {
				return err
			}
		}
		if p.QuantityOnHand.LessThan(r.Quantity) {
			uc.log.Warn().
				Str("op", OpReverseStockReceipt).
				Str("product_id", p.ID).
				Str("receipt_qty", r.Quantity.String()).
				Str("on_hand", p.QuantityOnHand.String()).
				Msg("la recepción reversada ya se había vendido; stock ajustado a 0")
		}
		if err := productRepo.UpdateLedger(ctx, p.ID, newQty, newCost); err != nil {
			return err
		}
		p.QuantityOnHand = newQty
		p.AverageCost = newCost
		p.UpdatedAt = uc.now().UTC()
		receipt, product = r, p
		return nil
	})
	if err != nil {
		return nil, nil, uc.fail(OpReverseStockReceipt, "stock_receipt", receiptID, start, err)
	}
	uc.committed(ctx, OpReverseStockReceipt, product, start)
	return receipt, product, nil
}

// RecordSale descuenta la cantidad vendida y congela ingreso y utilidad contra el costo promedio vigente.
// Si la cantidad supera el stock devuelve domain.ErrInsufficientStock sin escribir nada.
func (uc *LedgerUseCase) RecordSale(ctx context.Context, in SaleInput) (*entity.SaleRecord, *entity.Product, error) {
	start := uc.now()
	if in.ProductID == "" || !in.Quantity.GreaterThan(decimal.Zero) || in.UnitSellingPrice.LessThan(decimal.Zero) ||
		!inventory.FitsScale(in.Quantity) || !inventory.FitsScale(in.UnitSellingPrice) {
		return nil, nil, uc.fail(OpRecordSale, "product", in.ProductID, start, domain.ErrInvalidInput)
	}

	var (
		sale    *entity.SaleRecord
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.StockReceiptRepository,
		saleRepo repository.SaleRecordRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity.GreaterThan(p.QuantityOnHand) {
			return domain.ErrInsufficientStock
		}
		now := uc.now().UTC()
		revenue, profit := inventory.SaleFigures(in.Quantity, in.UnitSellingPrice, p.AverageCost)
		s := &entity.SaleRecord{
			ID:               uuid.New().String(),
			ProductID:        p.ID,
			ProductName:      p.Name,
			Quantity:         in.Quantity,
			UnitSellingPrice: in.UnitSellingPrice,
			UnitCost:         p.AverageCost,
			TotalRevenue:     revenue,
			Profit:           profit,
			CreatedAt:        now,
		}
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		newQty, err := productRepo.DecrementStock(ctx, p.ID, in.Quantity)
		if err != nil {
			return err
		}
		p.QuantityOnHand = newQty
		p.UpdatedAt = now
		sale, product = s, p
		return nil
	})
	if err != nil {
		return nil, nil, uc.fail(OpRecordSale, "product", in.ProductID, start, err)
	}
	uc.committed(ctx, OpRecordSale, product, start)
	return sale, product, nil
}

// ReverseSale elimina la venta y devuelve su cantidad al stock. El costo promedio no cambia.
func (uc *LedgerUseCase) ReverseSale(ctx context.Context, saleID string) (*entity.SaleRecord, *entity.Product, error) {
	start := uc.now()
	if saleID == "" {
		return nil, nil, uc.fail(OpReverseSale, "sale", saleID, start, domain.ErrInvalidInput)
	}

	var (
		sale    *entity.SaleRecord
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.StockReceiptRepository,
		saleRepo repository.SaleRecordRepository,
	) error {
		s, err := saleRepo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		p, err := productRepo.GetForUpdate(ctx, s.ProductID)
		if err != nil {
			return err
		}
		if err := saleRepo.Delete(ctx, s.ID); err != nil {
			return err
		}
		newQty := p.QuantityOnHand.Add(s.Quantity)
		if err := productRepo.UpdateLedger(ctx, p.ID, newQty, p.AverageCost); err != nil {
			return err
		}
		p.QuantityOnHand = newQty
		p.UpdatedAt = uc.now().UTC()
		sale, product = s, p
		return nil
	})
	if err != nil {
		return nil, nil, uc.fail(OpReverseSale, "sale", saleID, start, err)
	}
	uc.committed(ctx, OpReverseSale, product, start)
	return sale, product, nil
}

// GetStockReceipt obtiene una recepción por ID.
func (uc *LedgerUseCase) GetStockReceipt(ctx context.Context, id string) (*entity.StockReceipt, error) {
	return uc.receiptRepo.GetByID(ctx, id)
}

// ListStockReceipts lista recepciones (más recientes primero); productID vacío = todas.
func (uc *LedgerUseCase) ListStockReceipts(ctx context.Context, productID string) ([]*entity.StockReceipt, error) {
	if productID != "" {
		return uc.receiptRepo.ListByProduct(ctx, productID)
	}
	return uc.receiptRepo.List(ctx)
}

// GetSale obtiene una venta por ID.
func (uc *LedgerUseCase) GetSale(ctx context.Context, id string) (*entity.SaleRecord, error) {
	return uc.saleRepo.GetByID(ctx, id)
}

// ListSales lista ventas (más recientes primero); productID vacío = todas.
func (uc *LedgerUseCase) ListSales(ctx context.Context, productID string) ([]*entity.SaleRecord, error) {
	if productID != "" {
		return uc.saleRepo.ListByProduct(ctx, productID)
	}
	return uc.saleRepo.List(ctx)
}

// replayCost recalcula el costo promedio con los eventos vigentes del producto (dentro de la tx).
func replayCost(
	ctx context.Context,
	productID string,
	receiptRepo repository.StockReceiptRepository,
	saleRepo repository.SaleRecordRepository,
) (decimal.Decimal, error) {
	receipts, err := receiptRepo.ListByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	sales, err := saleRepo.ListByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	rs := make([]entity.StockReceipt, 0, len(receipts))
	for _, r := range receipts {
		rs = append(rs, *r)
	}
	ss := make([]entity.SaleRecord, 0, len(sales))
	for _, s := range sales {
		ss = append(ss, *s)
	}
	return inventory.ReplayAverageCost(rs, ss), nil
}

func (uc *LedgerUseCase) committed(ctx context.Context, op string, p *entity.Product, start time.Time) {
	uc.metrics.ObserveOperation(op, ports.OutcomeOK, uc.now().Sub(start))
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Warn().Err(err).Str("op", op).Msg("invalidar caché del dashboard")
	}
	uc.log.Info().
		Str("op", op).
		Str("product_id", p.ID).
		Str("quantity_on_hand", p.QuantityOnHand.String()).
		Str("average_cost", p.AverageCost.String()).
		Msg("movimiento confirmado")
}

func (uc *LedgerUseCase) fail(op, entityName, id string, start time.Time, err error) error {
	uc.metrics.ObserveOperation(op, outcomeOf(err), uc.now().Sub(start))
	uc.log.Warn().Err(err).Str("op", op).Str(entityName+"_id", id).Msg("movimiento revertido")
	return domain.Wrap(op, entityName, id, err)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return ports.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return ports.OutcomeNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return ports.OutcomeInsufficientStock
	default:
		return ports.OutcomeError
	}
}
