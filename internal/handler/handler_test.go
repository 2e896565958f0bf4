package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/fault"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/visitor"
)

// --- In-memory repositories ---

type memCatalog struct {
	products []catalog.Product
}

func (m *memCatalog) byID(id int64) (catalog.Product, bool) {
	for _, p := range m.products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}

func (m *memCatalog) ListProducts(_ context.Context, f catalog.ProductFilter, _ catalog.Viewer) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.IsActive == *f.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) GetProductBySlug(_ context.Context, slug string, _ catalog.Viewer) (*catalog.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug && p.IsActive {
			return &p, nil
		}
	}
	return nil, fault.NotFound("product", slug)
}

func (m *memCatalog) GetProductsByIDs(_ context.Context, ids []int64, _ catalog.Viewer) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range m.products {
		if p.IsActive && slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) ListBanners(context.Context, catalog.Viewer) ([]catalog.Banner, error) {
	return []catalog.Banner{{ID: 1, Title: "Sale", Image: "banners/sale.png", IsActive: true, Position: 2}}, nil
}

func (m *memCatalog) ListManufacturers(context.Context, catalog.ManufacturerFilter) ([]catalog.Manufacturer, error) {
	return []catalog.Manufacturer{{ID: 1, Title: "Acme", Logo: "logos/acme.png"}}, nil
}

func (m *memCatalog) ListParentCategories(context.Context, catalog.CategoryFilter) ([]catalog.ParentCategory, error) {
	return nil, nil
}

type memCarts struct {
	mu      sync.Mutex
	catalog *memCatalog
	carts   map[int64]*cart.Cart
	items   map[int64][]cart.Item
	nextID  int64
}

func newMemCarts(c *memCatalog) *memCarts {
	return &memCarts{catalog: c, carts: make(map[int64]*cart.Cart), items: make(map[int64][]cart.Item)}
}

func (m *memCarts) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memCarts) Create(_ context.Context, fingerprint string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &cart.Cart{ID: m.id(), Fingerprint: fingerprint, Status: cart.StatusActive, CreatedAt: time.Now()}
	m.carts[c.ID] = c
	return c, nil
}

func (m *memCarts) GetByID(_ context.Context, id int64) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCarts) ListByFingerprint(_ context.Context, fingerprint string) ([]cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []cart.Cart
	for _, c := range m.carts {
		if c.Fingerprint == fingerprint {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCarts) AddItem(_ context.Context, cartID, productID int64, quantity int) (*cart.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	if !c.Active() {
		return nil, cart.ErrInactive
	}
	p, ok := m.catalog.byID(productID)
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	items := m.items[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			it := items[i]
			return &it, nil
		}
	}
	it := cart.Item{
		ID:        m.id(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		Product:   cart.ProductSnapshot{Title: p.Title, Price: p.Price, SalePrice: p.SalePrice},
	}
	m.items[cartID] = append(items, it)
	return &it, nil
}

func (m *memCarts) UpdateItemQuantity(_ context.Context, itemID int64, quantity int) (*cart.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cartID, items := range m.items {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if !m.carts[cartID].Active() {
				return nil, cart.ErrInactive
			}
			items[i].Quantity = quantity
			it := items[i]
			return &it, nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (m *memCarts) RemoveItem(_ context.Context, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cartID, items := range m.items {
		m.items[cartID] = slices.DeleteFunc(items, func(it cart.Item) bool { return it.ID == itemID })
	}
	return nil
}

func (m *memCarts) ListItems(_ context.Context, cartID int64) ([]cart.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items[cartID]), nil
}

// memOrders runs placement directly against memCarts. Placement failures in
// these tests happen before any write, so no rollback is modelled.
type memOrders struct {
	txMu   sync.Mutex
	carts  *memCarts
	orders []order.Order
}

func (m *memOrders) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *memOrders) LockCart(ctx context.Context, cartID int64) (*cart.Cart, error) {
	return m.carts.GetByID(ctx, cartID)
}

func (m *memOrders) CartItems(ctx context.Context, cartID int64) ([]cart.Item, error) {
	return m.carts.ListItems(ctx, cartID)
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	o.ID = int64(len(m.orders) + 1)
	o.CreatedAt = time.Now()
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memOrders) SetCartStatus(_ context.Context, cartID int64, status cart.Status) error {
	m.carts.mu.Lock()
	defer m.carts.mu.Unlock()
	m.carts.carts[cartID].Status = status
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*order.Order
}

func (n *recordingNotifier) Notify(_ context.Context, o *order.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type memVisits struct {
	mu       sync.Mutex
	views    int
	lastSeen []visitor.Entry
	saved    []visitor.Entry
	nextID   int64
}

func (m *memVisits) RecordView(context.Context, int64, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views++
	return nil
}

func (m *memVisits) TouchLastSeen(_ context.Context, productID int64, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.lastSeen {
		if e.ProductID == productID && e.Fingerprint == fingerprint {
			return nil
		}
	}
	m.nextID++
	m.lastSeen = append(m.lastSeen, visitor.Entry{ID: m.nextID, ProductID: productID, Fingerprint: fingerprint})
	return nil
}

func (m *memVisits) list(entries []visitor.Entry, fingerprint string) []visitor.Entry {
	var out []visitor.Entry
	for _, e := range entries {
		if e.Fingerprint == fingerprint {
			out = append(out, e)
		}
	}
	return out
}

func (m *memVisits) ListLastSeen(_ context.Context, fingerprint string) ([]visitor.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(m.lastSeen, fingerprint), nil
}

func (m *memVisits) ListSaved(_ context.Context, fingerprint string) ([]visitor.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(m.saved, fingerprint), nil
}

func (m *memVisits) Save(_ context.Context, productID int64, fingerprint string) (*visitor.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.saved {
		if e.ProductID == productID && e.Fingerprint == fingerprint {
			return &e, nil
		}
	}
	m.nextID++
	e := visitor.Entry{ID: m.nextID, ProductID: productID, Fingerprint: fingerprint}
	m.saved = append(m.saved, e)
	return &e, nil
}

func (m *memVisits) Unsave(_ context.Context, productID int64, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.saved)
	m.saved = slices.DeleteFunc(m.saved, func(e visitor.Entry) bool {
		return e.ProductID == productID && e.Fingerprint == fingerprint
	})
	return len(m.saved) < n, nil
}

type memSearch struct {
	mu      sync.Mutex
	entries []search.Entry
}

func (m *memSearch) Create(_ context.Context, fingerprint, query string) (*search.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := search.Entry{ID: int64(len(m.entries) + 1), Query: query, Fingerprint: fingerprint}
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memSearch) List(_ context.Context, fingerprint string) ([]search.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []search.Entry
	for _, e := range m.entries {
		if e.Fingerprint == fingerprint {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSearch) Delete(_ context.Context, id int64, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = slices.DeleteFunc(m.entries, func(e search.Entry) bool {
		return e.ID == id && e.Fingerprint == fingerprint
	})
	return nil
}

func (m *memSearch) Popular(_ context.Context, limit int) ([]search.Popular, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []search.Popular
	for _, e := range m.entries {
		i := slices.IndexFunc(out, func(p search.Popular) bool { return p.Query == e.Query })
		if i < 0 {
			out = append(out, search.Popular{Query: e.Query})
			i = len(out) - 1
		}
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b search.Popular) int { return b.Count - a.Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memContact struct {
	info  *contact.Info
	forms []contact.Form
}

func (m *memContact) GetInfo(context.Context) (*contact.Info, error) {
	if m.info == nil {
		return nil, contact.ErrNotConfigured
	}
	return m.info, nil
}

func (m *memContact) GetAbout(context.Context) (*contact.About, error) { return nil, nil }

func (m *memContact) ListEmployees(context.Context) ([]contact.Employee, error) {
	return []contact.Employee{{ID: 1, Name: "Bob", Image: "staff/bob.jpg"}}, nil
}

func (m *memContact) CreateForm(_ context.Context, f *contact.Form) error {
	f.ID = int64(len(m.forms) + 1)
	m.forms = append(m.forms, *f)
	return nil
}

// --- Harness ---

type testEnv struct {
	router   *gin.Engine
	carts    *memCarts
	visits   *memVisits
	notifier *recordingNotifier
	contacts *memContact
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := &memCatalog{products: []catalog.Product{
		{
			ID:        1,
			Title:     "Phone",
			Slug:      "phone",
			Price:     decimal.RequireFromString("100"),
			SalePrice: decimal.NewNullDecimal(decimal.RequireFromString("80")),
			IsActive:  true,
			Gallery:   []string{"products/phone.jpg"},
		},
		{
			ID:       2,
			Title:    "Case",
			Slug:     "case",
			Price:    decimal.RequireFromString("12.5"),
			IsActive: true,
		},
		{
			ID:    3,
			Title: "Retired",
			Slug:  "retired",
			Price: decimal.RequireFromString("5"),
		},
	}}
	carts := newMemCarts(products)
	visits := &memVisits{}
	notifier := &recordingNotifier{}
	contacts := &memContact{}

	orders, err := order.NewService(&memOrders{carts: carts}, notifier,
		tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	h := New(Config{MediaBaseURL: "https://cdn.example.com/media/"},
		products,
		visitor.NewService(visits, products, visitor.DedupeConfig{}),
		cart.NewService(carts),
		orders,
		search.NewService(&memSearch{}),
		contact.NewService(contacts),
	)
	r := gin.New()
	h.Register(r)

	return &testEnv{router: r, carts: carts, visits: visits, notifier: notifier, contacts: contacts}
}

func (e *testEnv) do(t *testing.T, method, path, fingerprint string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if fingerprint != "" {
		req.Header.Set("Fingerprint", fingerprint)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// --- Tests ---

func TestCartToOrderFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/cart", "fp-1", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[cartResponse](t, w)
	assert.Equal(t, "fp-1", created.Fingerprint)
	assert.Equal(t, "active", created.Status)

	w = env.do(t, http.MethodPost, "/api/cart-item", "fp-1", map[string]any{"cart": created.ID, "product": 1, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Same product again merges into one line; quantity defaults to 1.
	w = env.do(t, http.MethodPost, "/api/cart-item", "fp-1", map[string]any{"cart": created.ID, "product": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 3, decode[cartItemResponse](t, w).Quantity)

	w = env.do(t, http.MethodPost, "/api/cart-item", "fp-1", map[string]any{"cart": created.ID, "product": 2, "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/cart/total-price?cart_id=1", "fp-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, totalsResponse{Quantity: 2, TotalPrice: "325.00", TotalSavings: "60.00"}, decode[totalsResponse](t, w))

	w = env.do(t, http.MethodGet, "/api/cart-item?cart_id=1", "fp-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	lines := decode[[]cartItemListResponse](t, w)
	require.Len(t, lines, 2)
	assert.Equal(t, "Phone", lines[0].Product.Title)
	assert.Equal(t, []string{"https://cdn.example.com/media/products/phone.jpg"}, lines[0].Product.Gallery)

	w = env.do(t, http.MethodPost, "/api/order", "fp-1", map[string]any{"cart": created.ID, "name": " Ann ", "phone": "+998901234567"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[orderResponse](t, w)
	assert.Equal(t, orderResponse{ID: 1, Cart: created.ID, Name: "Ann", Phone: "+998901234567", Status: "in_moderation"}, placed)
	assert.Equal(t, 1, env.notifier.count())

	// The cart is now inactive: no second order, no more mutations.
	w = env.do(t, http.MethodPost, "/api/order", "fp-1", map[string]any{"cart": created.ID, "name": "Ann", "phone": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, "/api/cart-item", "fp-1", map[string]any{"cart": created.ID, "product": 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, env.notifier.count())

	w = env.do(t, http.MethodGet, "/api/cart", "fp-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	carts := decode[[]cartResponse](t, w)
	require.Len(t, carts, 1)
	assert.Equal(t, "inactive", carts[0].Status)
}

func TestCreateCart(t *testing.T) {
	env := newTestEnv(t)

	t.Run("FingerprintFromBody", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/cart", "", map[string]string{"fingerprint": "body-fp"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "body-fp", decode[cartResponse](t, w).Fingerprint)
	})
	t.Run("HeaderWins", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/cart", "hdr-fp", map[string]string{"fingerprint": "body-fp"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "hdr-fp", decode[cartResponse](t, w).Fingerprint)
	})
	t.Run("Missing", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/cart", "", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[errorResponse](t, w).Message, "fingerprint")
	})
}

func TestCartItemErrors(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart", "fp", nil)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"ZeroQuantity", http.MethodPost, "/api/cart-item", map[string]any{"cart": 1, "product": 1, "quantity": 0}, http.StatusBadRequest},
		{"UnknownCart", http.MethodPost, "/api/cart-item", map[string]any{"cart": 99, "product": 1}, http.StatusNotFound},
		{"UnknownProduct", http.MethodPost, "/api/cart-item", map[string]any{"cart": 1, "product": 99}, http.StatusNotFound},
		{"BadJSON", http.MethodPost, "/api/cart-item", "not an object", http.StatusBadRequest},
		{"UpdateMissing", http.MethodPut, "/api/cart-item/42", map[string]any{"quantity": 2}, http.StatusNotFound},
		{"UpdateZero", http.MethodPut, "/api/cart-item/42", map[string]any{"quantity": 0}, http.StatusBadRequest},
		{"BadPathID", http.MethodDelete, "/api/cart-item/abc", nil, http.StatusBadRequest},
		{"DeleteMissing", http.MethodDelete, "/api/cart-item/42", nil, http.StatusNoContent},
		{"ItemsNoCartID", http.MethodGet, "/api/cart-item", nil, http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, tc.method, tc.path, "fp", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestCartTotalPriceAnonymous(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/cart/total-price", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, totalsResponse{Quantity: 0, TotalPrice: "0.00", TotalSavings: "0.00"}, decode[totalsResponse](t, w))
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart", "fp", nil)

	for _, tc := range []struct {
		name   string
		body   map[string]any
		status int
		field  string
	}{
		{"NoName", map[string]any{"cart": 1, "phone": "1"}, http.StatusBadRequest, "name"},
		{"NoPhone", map[string]any{"cart": 1, "name": "Ann"}, http.StatusBadRequest, "phone"},
		{"NoCart", map[string]any{"name": "Ann", "phone": "1"}, http.StatusBadRequest, "cart"},
		{"EmptyCart", map[string]any{"cart": 1, "name": "Ann", "phone": "1"}, http.StatusBadRequest, "empty"},
		{"UnknownCart", map[string]any{"cart": 7, "name": "Ann", "phone": "1"}, http.StatusNotFound, "cart"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/order", "fp", tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			resp := decode[errorResponse](t, w)
			assert.Equal(t, tc.status, resp.Code)
			assert.Contains(t, resp.Message, tc.field)
		})
	}
	assert.Zero(t, env.notifier.count())
}

func TestInputBounds(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart", "fp", nil)
	long := strings.Repeat("x", 251)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
		field  string
	}{
		{"AddQuantity", http.MethodPost, "/api/cart-item", map[string]any{"cart": 1, "product": 1, "quantity": 3_000_000_000}, "quantity"},
		{"UpdateQuantity", http.MethodPut, "/api/cart-item/1", map[string]any{"quantity": int64(cart.MaxQuantity) + 1}, "quantity"},
		{"CartFingerprint", http.MethodPost, "/api/cart", map[string]any{"fingerprint": long}, "fingerprint"},
		{"OrderName", http.MethodPost, "/api/order", map[string]any{"cart": 1, "name": long, "phone": "1"}, "name"},
		{"OrderPhone", http.MethodPost, "/api/order", map[string]any{"cart": 1, "name": "Ann", "phone": long}, "phone"},
		{"ContactName", http.MethodPost, "/api/contact-form", map[string]any{"name": long + "x", "phone": "1", "question": "q"}, "name"},
		{"SearchFingerprint", http.MethodPost, "/api/search-history", map[string]any{"query": "drill", "fingerprint": long}, "fingerprint"},
		{"SaveFingerprint", http.MethodPost, "/api/saved-products", map[string]any{"product": 1, "fingerprint": long}, "fingerprint"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, tc.method, tc.path, "fp", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[errorResponse](t, w).Message, tc.field)
		})
	}

	t.Run("HeaderFingerprint", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/cart", long, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Contains(t, decode[errorResponse](t, w).Message, "fingerprint")
	})

	t.Run("AtLimit", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/cart-item", "fp", map[string]any{"cart": 1, "product": 1, "quantity": cart.MaxQuantity})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		item := decode[cartItemResponse](t, w)
		assert.Equal(t, cart.MaxQuantity, item.Quantity)

		w = env.do(t, http.MethodPut, "/api/cart-item/"+strconv.FormatInt(item.ID, 10), "fp", map[string]any{"quantity": cart.MaxQuantity})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		edge := strings.Repeat("x", 250)
		w = env.do(t, http.MethodPost, "/api/order", "fp", map[string]any{"cart": 1, "name": edge, "phone": edge})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})
}

func TestProductDetailTracksVisitor(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/products/phone", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[productResponse](t, w)
	assert.Equal(t, "100.00", p.Price)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, "80.00", *p.SalePrice)

	// Repeated view is deduplicated; anonymous views are not recorded.
	env.do(t, http.MethodGet, "/api/products/phone", "fp", nil)
	env.do(t, http.MethodGet, "/api/products/phone", "", nil)
	assert.Equal(t, 1, env.visits.views)

	w = env.do(t, http.MethodGet, "/api/last-seen-products", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	seen := decode[[]map[string]any](t, w)
	require.Len(t, seen, 1)
	assert.NotContains(t, seen[0], "fingerprint")

	w = env.do(t, http.MethodGet, "/api/products/retired", "fp", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]productResponse](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/products?is_active=false", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]productResponse](t, w), 1)

	for _, q := range []string{"ordering=bogus", "min_price=abc", "min_price=10&max_price=5", "manufacturer=1,x", "limit=-1"} {
		w = env.do(t, http.MethodGet, "/api/products?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestBannersAndManufacturersUseMediaURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/banners", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	banners := decode[[]bannerResponse](t, w)
	require.Len(t, banners, 1)
	assert.Equal(t, "https://cdn.example.com/media/banners/sale.png", banners[0].Image)
	assert.Equal(t, 2, banners[0].Order)

	w = env.do(t, http.MethodGet, "/api/manufacturers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn.example.com/media/logos/acme.png")
}

func TestSavedProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/saved-products", "", map[string]any{"product": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/saved-products", "", map[string]any{"product": 1, "fingerprint": "fp"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[savedProductResponse](t, w)
	assert.Equal(t, savedProductResponse{ID: first.ID, Product: 1, Fingerprint: "fp"}, first)

	w = env.do(t, http.MethodPost, "/api/saved-products", "fp", map[string]any{"product": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, first.ID, decode[savedProductResponse](t, w).ID)

	w = env.do(t, http.MethodGet, "/api/saved-products", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[[]visitorEntryResponse](t, w)
	require.Len(t, saved, 1)
	assert.Equal(t, "fp", saved[0].Fingerprint)
	assert.Equal(t, "Phone", saved[0].Product.Title)

	w = env.do(t, http.MethodDelete, "/api/saved-products/1", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusResponse{Status: "deleted"}, decode[statusResponse](t, w))

	w = env.do(t, http.MethodDelete, "/api/saved-products/1", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusResponse{Status: "not found"}, decode[statusResponse](t, w))

	w = env.do(t, http.MethodDelete, "/api/saved-products/1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHistory(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"phone", "case", "phone"} {
		w := env.do(t, http.MethodPost, "/api/search-history", "fp", map[string]string{"query": q})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodPost, "/api/search-history", "", map[string]string{"query": "other", "fingerprint": "fp2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "fp2", decode[searchEntryResponse](t, w).Fingerprint)

	w = env.do(t, http.MethodGet, "/api/search-history", "fp", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]searchEntryResponse](t, w), 3)

	w = env.do(t, http.MethodGet, "/api/popular-search-history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	popular := decode[popularSearchListResponse](t, w)
	require.NotEmpty(t, popular.PopularSearchesList)
	assert.Equal(t, popularSearchResponse{Query: "phone", Count: 2}, popular.PopularSearchesList[0])

	// Another visitor cannot delete fp's entry.
	w = env.do(t, http.MethodDelete, "/api/search-history/1", "fp2", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/search-history", "fp", nil)
	assert.Len(t, decode[[]searchEntryResponse](t, w), 3)

	w = env.do(t, http.MethodDelete, "/api/search-history/1", "fp", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodGet, "/api/search-history", "fp", nil)
	assert.Len(t, decode[[]searchEntryResponse](t, w), 2)

	w = env.do(t, http.MethodGet, "/api/search-history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/contact", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.contacts.info = &contact.Info{
		Address: "Tashkent",
		Email:   "shop@example.com",
		Socials: []contact.Social{{ID: 1, Name: "tg", URL: "https://t.me/shop", Icon: "icons/tg.svg"}},
	}
	w = env.do(t, http.MethodGet, "/api/contact", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[contactResponse](t, w)
	assert.Equal(t, "Tashkent", resp.Address)
	assert.Equal(t, []string{}, resp.Phones)
	assert.Nil(t, resp.About)
	require.Len(t, resp.SocialMedia, 1)
	assert.Equal(t, "https://cdn.example.com/media/icons/tg.svg", resp.SocialMedia[0].Icon)
	require.Len(t, resp.Employees, 1)
	assert.Equal(t, "https://cdn.example.com/media/staff/bob.jpg", resp.Employees[0].Image)

	w = env.do(t, http.MethodPost, "/api/contact-form", "", map[string]string{"name": "Ann", "phone": "1", "question": "When?", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/contact-form", "", map[string]string{"name": "Ann", "phone": "1", "question": "When?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, contactFormResponse{ID: 1, Name: "Ann", Phone: "1", Question: "When?"}, decode[contactFormResponse](t, w))
}

func TestFail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"Validation", fault.Validation("name", "is required"), http.StatusBadRequest, "name: is required"},
		{"WrappedNotFound", errors.Wrap(cart.ErrNotFound, "get cart"), http.StatusNotFound, "cart not found"},
		{"Conflict", cart.ErrInactive, http.StatusConflict, "cart is not active"},
		{"Internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			fail(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			resp := decode[errorResponse](t, w)
			assert.Equal(t, tc.status, resp.Code)
			assert.Contains(t, resp.Message, tc.message)
			assert.NotContains(t, resp.Message, "pq:")
		})
	}
}
