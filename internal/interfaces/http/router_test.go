package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/auth"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/spreadsheet"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "s3creto-largo"
)

// apiClient envuelve la app con el token del administrador.
type apiClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.New()
	deps := usecase.CatalogDeps{}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(
			auth.AdminCredentials{Email: adminEmail, PasswordHash: string(hash)},
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
		),
		CategoryUC: usecase.NewCategoryUseCase(store.Categories(), store.Products(), deps),
		ProductUC:  usecase.NewProductUseCase(store.Products(), store.Categories(), deps),
		LedgerUC:   inventory.NewLedgerUseCase(memory.NewTxRunner(store), store.StockReceipts(), store.Sales(), inventory.LedgerConfig{}),
		DashboardUC: appanalytics.NewDashboardUseCase(store.Products(), store.Categories(), store.Sales(), appanalytics.DashboardConfig{
			Renderers: []ports.DashboardRenderer{spreadsheet.NewDashboardXLSX()},
		}),
		JWTSecret: testJWTSecret,
	})

	c := &apiClient{t: t, app: app}
	status, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, status, string(body))
	var login struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	require.Equal(t, "Bearer", login.TokenType)
	c.token = login.Token
	return c
}

func (c *apiClient) do(method, path string, payload any) (int, []byte) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

// json hace la petición, verifica el status y decodifica la respuesta.
func (c *apiClient) json(method, path string, payload any, wantStatus int) map[string]any {
	c.t.Helper()
	status, body := c.do(method, path, payload)
	require.Equal(c.t, wantStatus, status, string(body))
	out := map[string]any{}
	if len(body) > 0 {
		require.NoError(c.t, json.Unmarshal(body, &out))
	}
	return out
}

func assertDecimal(t *testing.T, want string, got any) {
	t.Helper()
	s, ok := got.(string)
	require.True(t, ok, "se esperaba decimal como string, llegó %T", got)
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(s)), "want %s got %s", want, s)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesInvalidas(t *testing.T) {
	api := newAPI(t)
	api.token = ""

	out := api.json(http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail, "password": "otra"}, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", out["code"])

	out = api.json(http.MethodPost, "/api/auth/login", map[string]string{"email": adminEmail}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])

	api.json(http.MethodGet, "/api/products", nil, http.StatusUnauthorized)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo: catálogo → recepciones → ventas → dashboard → reversas
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoDeInventario(t *testing.T) {
	api := newAPI(t)

	cat := api.json(http.MethodPost, "/api/categories", map[string]string{"name": "Herramientas"}, http.StatusCreated)
	catID := cat["id"].(string)

	prod := api.json(http.MethodPost, "/api/products", map[string]any{
		"name": "Martillo", "category_id": catID, "unit": "und", "selling_price": "150",
	}, http.StatusCreated)
	prodID := prod["id"].(string)
	assertDecimal(t, "0", prod["quantity_on_hand"])
	assertDecimal(t, "0", prod["average_purchase_cost"])

	r1 := api.json(http.MethodPost, "/api/stock-receipts", map[string]any{
		"product_id": prodID, "quantity": "10", "unit_purchase_price": "80",
	}, http.StatusCreated)
	assertDecimal(t, "800", r1["stock_receipt"].(map[string]any)["total_cost"])
	r2 := api.json(http.MethodPost, "/api/stock-receipts", map[string]any{
		"product_id": prodID, "quantity": "10", "unit_purchase_price": "100",
	}, http.StatusCreated)
	p := r2["product"].(map[string]any)
	assertDecimal(t, "20", p["quantity_on_hand"])
	assertDecimal(t, "90", p["average_purchase_cost"])

	sale := api.json(http.MethodPost, "/api/sales", map[string]any{
		"product_id": prodID, "quantity": "5", "unit_selling_price": "120",
	}, http.StatusCreated)
	s := sale["sale"].(map[string]any)
	assertDecimal(t, "600", s["total_revenue"])
	assertDecimal(t, "150", s["profit"])
	assertDecimal(t, "15", sale["product"].(map[string]any)["quantity_on_hand"])

	out := api.json(http.MethodPost, "/api/sales", map[string]any{
		"product_id": prodID, "quantity": "16", "unit_selling_price": "120",
	}, http.StatusConflict)
	assert.Equal(t, "INSUFFICIENT_STOCK", out["code"])

	dash := api.json(http.MethodGet, "/api/dashboard", nil, http.StatusOK)
	assert.EqualValues(t, 1, dash["total_products"])
	assert.EqualValues(t, 1, dash["total_categories"])
	assert.EqualValues(t, 1, dash["total_sales"])
	assertDecimal(t, "15", dash["total_stock"])
	assertDecimal(t, "600", dash["total_revenue"])
	assertDecimal(t, "150", dash["total_profit"])
	assert.Empty(t, dash["low_stock_products"])
	require.Len(t, dash["recent_sales"], 1)

	sales := api.json(http.MethodGet, "/api/sales?product_id="+prodID, nil, http.StatusOK)
	assert.EqualValues(t, 1, sales["total"])

	rev := api.json(http.MethodDelete, "/api/sales/"+s["id"].(string), nil, http.StatusOK)
	assertDecimal(t, "20", rev["product"].(map[string]any)["quantity_on_hand"])
	api.json(http.MethodGet, "/api/sales/"+s["id"].(string), nil, http.StatusNotFound)

	receipts := api.json(http.MethodGet, "/api/stock-receipts", nil, http.StatusOK)
	assert.EqualValues(t, 2, receipts["total"])
	r2ID := r2["stock_receipt"].(map[string]any)["id"].(string)
	got := api.json(http.MethodGet, "/api/stock-receipts/"+r2ID, nil, http.StatusOK)
	assertDecimal(t, "100", got["unit_purchase_price"])

	rev = api.json(http.MethodDelete, "/api/stock-receipts/"+r2ID, nil, http.StatusOK)
	revProduct := rev["product"].(map[string]any)
	assertDecimal(t, "10", revProduct["quantity_on_hand"])
	assertDecimal(t, "80", revProduct["average_purchase_cost"])
}

func TestAPI_Validaciones(t *testing.T) {
	api := newAPI(t)

	out := api.json(http.MethodPost, "/api/categories", map[string]string{"description": "sin nombre"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])

	cat := api.json(http.MethodPost, "/api/categories", map[string]string{"name": "Bebidas"}, http.StatusCreated)
	out = api.json(http.MethodPost, "/api/categories", map[string]string{"name": "BEBIDAS"}, http.StatusConflict)
	assert.Equal(t, "DUPLICATE", out["code"])

	api.json(http.MethodPost, "/api/products", map[string]any{"name": "Agua", "category_id": "no-es-uuid"}, http.StatusBadRequest)
	api.json(http.MethodPost, "/api/products", map[string]any{
		"name": "Agua", "category_id": "6f1c1c9e-8a43-4c55-9d59-1b8f3f1f0c11",
	}, http.StatusNotFound)

	prod := api.json(http.MethodPost, "/api/products", map[string]any{
		"name": "Agua", "category_id": cat["id"], "selling_price": "2",
	}, http.StatusCreated)

	out = api.json(http.MethodPost, "/api/stock-receipts", map[string]any{
		"product_id": prod["id"], "quantity": "0", "unit_purchase_price": "1",
	}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])
	api.json(http.MethodPost, "/api/sales", map[string]any{
		"product_id": prod["id"], "quantity": "1", "unit_selling_price": "-1",
	}, http.StatusBadRequest)

	out = api.json(http.MethodDelete, "/api/categories/"+cat["id"].(string), nil, http.StatusConflict)
	assert.Equal(t, "CONFLICT", out["code"])

	api.json(http.MethodDelete, "/api/products/"+prod["id"].(string), nil, http.StatusNoContent)
	api.json(http.MethodDelete, "/api/categories/"+cat["id"].(string), nil, http.StatusNoContent)

	list := api.json(http.MethodGet, "/api/categories", nil, http.StatusOK)
	assert.EqualValues(t, 0, list["total"])
	assert.Empty(t, list["items"])
}

func TestAPI_IdsMalFormados(t *testing.T) {
	api := newAPI(t)

	out := api.json(http.MethodPost, "/api/stock-receipts", map[string]any{
		"product_id": "abc", "quantity": "1", "unit_purchase_price": "1",
	}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Contains(t, out["message"], "productid: uuid")
	api.json(http.MethodPost, "/api/sales", map[string]any{
		"product_id": "abc", "quantity": "1", "unit_selling_price": "1",
	}, http.StatusBadRequest)

	out = api.json(http.MethodGet, "/api/sales?product_id=abc", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])
	api.json(http.MethodGet, "/api/stock-receipts?product_id=abc", nil, http.StatusBadRequest)
	api.json(http.MethodGet, "/api/products?category_id=abc", nil, http.StatusBadRequest)

	for _, path := range []string{"/api/sales/abc", "/api/stock-receipts/abc", "/api/products/abc", "/api/categories/abc"} {
		out = api.json(http.MethodGet, path, nil, http.StatusNotFound)
		assert.Equal(t, "NOT_FOUND", out["code"], path)
	}
}

func TestAPI_DecimalesDeMas(t *testing.T) {
	api := newAPI(t)
	cat := api.json(http.MethodPost, "/api/categories", map[string]string{"name": "Granel"}, http.StatusCreated)
	prod := api.json(http.MethodPost, "/api/products", map[string]any{
		"name": "Harina", "category_id": cat["id"], "selling_price": "1.5",
	}, http.StatusCreated)

	api.json(http.MethodPost, "/api/stock-receipts", map[string]any{
		"product_id": prod["id"], "quantity": "1.00005", "unit_purchase_price": "1",
	}, http.StatusBadRequest)
	api.json(http.MethodPost, "/api/products", map[string]any{
		"name": "Azúcar", "category_id": cat["id"], "selling_price": "0.00001",
	}, http.StatusBadRequest)

	got := api.json(http.MethodGet, "/api/products/"+prod["id"].(string), nil, http.StatusOK)
	assertDecimal(t, "0", got["quantity_on_hand"])
}

func TestAPI_ProductosFiltrosYUpdate(t *testing.T) {
	api := newAPI(t)
	c1 := api.json(http.MethodPost, "/api/categories", map[string]string{"name": "Lácteos"}, http.StatusCreated)
	c2 := api.json(http.MethodPost, "/api/categories", map[string]string{"name": "Panadería"}, http.StatusCreated)
	api.json(http.MethodPost, "/api/products", map[string]any{"name": "Leche", "category_id": c1["id"]}, http.StatusCreated)
	pan := api.json(http.MethodPost, "/api/products", map[string]any{"name": "Pan tajado", "category_id": c2["id"]}, http.StatusCreated)

	list := api.json(http.MethodGet, "/api/products?search=PAN", nil, http.StatusOK)
	assert.EqualValues(t, 1, list["total"])
	list = api.json(http.MethodGet, "/api/products?category_id="+c1["id"].(string), nil, http.StatusOK)
	assert.EqualValues(t, 1, list["total"])

	upd := api.json(http.MethodPut, "/api/products/"+pan["id"].(string), map[string]any{"selling_price": "3.5"}, http.StatusOK)
	assertDecimal(t, "3.5", upd["selling_price"])
	assert.Equal(t, "Pan tajado", upd["name"])
	assert.Equal(t, "Panadería", upd["category_name"])

	api.json(http.MethodGet, "/api/products/no-existe", nil, http.StatusNotFound)
}

func TestAPI_ReporteDashboard(t *testing.T) {
	api := newAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/report.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+api.token)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx es un zip")

	out := api.json(http.MethodGet, "/api/dashboard/report.docx", nil, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION", out["code"])
}
