package dto

import "github.com/jhoicas/inventario-ledger/internal/domain/entity"

// Conversión entidad -> respuesta HTTP.

func CategoryFromEntity(c *entity.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func ProductFromEntity(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		CategoryID:     p.CategoryID,
		CategoryName:   p.CategoryName,
		Unit:           p.Unit,
		SellingPrice:   p.SellingPrice,
		QuantityOnHand: p.QuantityOnHand,
		AverageCost:    p.AverageCost,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func StockReceiptFromEntity(r *entity.StockReceipt) StockReceiptResponse {
	return StockReceiptResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		Quantity:          r.Quantity,
		UnitPurchasePrice: r.UnitPurchasePrice,
		TotalCost:         r.TotalCost,
		CreatedAt:         r.CreatedAt,
	}
}

func SaleFromEntity(s *entity.SaleRecord) SaleResponse {
	return SaleResponse{
		ID:               s.ID,
		ProductID:        s.ProductID,
		ProductName:      s.ProductName,
		Quantity:         s.Quantity,
		UnitSellingPrice: s.UnitSellingPrice,
		UnitCost:         s.UnitCost,
		TotalRevenue:     s.TotalRevenue,
		Profit:           s.Profit,
		CreatedAt:        s.CreatedAt,
	}
}

func DashboardFromEntity(s *entity.DashboardSnapshot) DashboardResponse {
	low := make([]ProductResponse, 0, len(s.LowStockProducts))
	for i := range s.LowStockProducts {
		low = append(low, ProductFromEntity(&s.LowStockProducts[i]))
	}
	recent := make([]SaleResponse, 0, len(s.RecentSales))
	for i := range s.RecentSales {
		recent = append(recent, SaleFromEntity(&s.RecentSales[i]))
	}
	return DashboardResponse{
		TotalProducts:     s.TotalProducts,
		TotalCategories:   s.TotalCategories,
		TotalStock:        s.TotalStock,
		TotalSales:        s.TotalSales,
		TotalRevenue:      s.TotalRevenue,
		TotalProfit:       s.TotalProfit,
		LowStockThreshold: s.LowStockThreshold,
		LowStockProducts:  low,
		RecentSales:       recent,
		GeneratedAt:       s.GeneratedAt,
	}
}
