// seed importa un catálogo CSV (category,name,unit,selling_price) a través de los casos de uso
// de catálogo. Crea las categorías que falten y omite productos ya existentes en su categoría.
//
// Uso: go run ./cmd/seed -file catalogo.csv [-encoding latin1] [-dry-run]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	infracache "github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const seedLockKey = "inventario:lock:seed"

// catalogRow una línea del CSV ya validada.
type catalogRow struct {
	Line         int
	Category     string
	Name         string
	Unit         string
	SellingPrice decimal.Decimal
}

// readCatalog lee el CSV. La primera línea se toma como encabezado si su primera columna es "category".
// Con latin1 el archivo se decodifica desde ISO-8859-1 (exportaciones de Excel en Windows).
func readCatalog(r io.Reader, latin1 bool) ([]catalogRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []catalogRow
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "category") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("línea %d: se esperan al menos category,name", line)
		}
		row := catalogRow{
			Line:     line,
			Category: strings.TrimSpace(rec[0]),
			Name:     strings.TrimSpace(rec[1]),
		}
		if len(rec) > 2 {
			row.Unit = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			price, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
			if err != nil || price.IsNegative() {
				return nil, fmt.Errorf("línea %d: selling_price inválido %q", line, rec[3])
			}
			row.SellingPrice = price
		}
		if row.Category == "" || row.Name == "" {
			return nil, fmt.Errorf("línea %d: category y name son requeridos", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importResult conteo de lo creado y lo omitido.
type importResult struct {
	CategoriesCreated int
	ProductsCreated   int
	ProductsSkipped   int
}

// importCatalog crea lo que falte. Es idempotente: correrlo dos veces no duplica nada.
func importCatalog(ctx context.Context, categories *usecase.CategoryUseCase, products *usecase.ProductUseCase, rows []catalogRow) (importResult, error) {
	var res importResult

	existing, err := categories.List(ctx)
	if err != nil {
		return res, err
	}
	categoryIDs := make(map[string]string, len(existing))
	for _, c := range existing {
		categoryIDs[strings.ToLower(c.Name)] = c.ID
	}

	known := make(map[string]bool)
	for _, row := range rows {
		key := strings.ToLower(row.Category)
		catID, ok := categoryIDs[key]
		if !ok {
			c, err := categories.Create(ctx, dto.CreateCategoryRequest{Name: row.Category})
			if err != nil {
				return res, fmt.Errorf("línea %d: crear categoría %q: %w", row.Line, row.Category, err)
			}
			catID = c.ID
			categoryIDs[key] = catID
			res.CategoriesCreated++
		}

		if !known[catID] {
			list, err := products.List(ctx, dto.ProductFilter{CategoryID: catID})
			if err != nil {
				return res, err
			}
			for _, p := range list {
				known[catID+"/"+strings.ToLower(p.Name)] = true
			}
			known[catID] = true
		}
		productKey := catID + "/" + strings.ToLower(row.Name)
		if known[productKey] {
			res.ProductsSkipped++
			continue
		}
		if _, err := products.Create(ctx, dto.CreateProductRequest{
			Name:         row.Name,
			CategoryID:   catID,
			Unit:         row.Unit,
			SellingPrice: row.SellingPrice,
		}); err != nil {
			return res, fmt.Errorf("línea %d: crear producto %q: %w", row.Line, row.Name, err)
		}
		known[productKey] = true
		res.ProductsCreated++
	}
	return res, nil
}

func main() {
	file := flag.String("file", "catalogo.csv", "Ruta del CSV category,name,unit,selling_price")
	encoding := flag.String("encoding", "utf8", "utf8 | latin1")
	dryRun := flag.Bool("dry-run", false, "Solo valida el archivo (no escribe)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	if err := run(cfg, log, *file, strings.EqualFold(*encoding, "latin1"), *dryRun); err != nil {
		log.Error().Err(err).Msg("seed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, path string, latin1, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("abrir CSV: %w", err)
	}
	defer f.Close()

	rows, err := readCatalog(f, latin1)
	if err != nil {
		return fmt.Errorf("leer CSV: %w", err)
	}
	log.Info().Int("rows", len(rows)).Str("file", path).Msg("catálogo leído")
	if dryRun {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deps := usecase.CatalogDeps{Logger: log}
	if cfg.Redis.Addr != "" {
		rdb := infracache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()

		// Un solo import a la vez: varias réplicas pueden lanzar el seed al desplegar.
		release, err := infracache.NewLocker(rdb).Obtain(ctx, seedLockKey, 5*time.Minute)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Warn().Err(err).Msg("liberar lock del seed")
			}
		}()
		deps.Cache = infracache.NewRedisDashboardCache(rdb)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	categoryRepo := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	res, err := importCatalog(ctx,
		usecase.NewCategoryUseCase(categoryRepo, productRepo, deps),
		usecase.NewProductUseCase(productRepo, categoryRepo, deps),
		rows,
	)
	if err != nil {
		return err
	}
	log.Info().
		Int("categories_created", res.CategoriesCreated).
		Int("products_created", res.ProductsCreated).
		Int("products_skipped", res.ProductsSkipped).
		Msg("catálogo importado")
	return nil
}
