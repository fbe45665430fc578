package handlers

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/dapursari/storefront/internal/auth"
	"github.com/dapursari/storefront/internal/catalog"
	"github.com/dapursari/storefront/internal/dynamotest"
	"github.com/dapursari/storefront/internal/mail"
	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/payment"
	"github.com/dapursari/storefront/internal/shipping"
)

const (
	testServerKey = "test-server-key"
	testCronToken = "cron-secret"
)

type nullSES struct{}

func (nullSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	return &sesv2.SendEmailOutput{}, nil
}

type testEnv struct {
	router *gin.Engine
	orders *orders.Store
	auth   *auth.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := dynamotest.NewFake()
	fake.CreateTable("orders", "order_id")
	fake.CreateTable("products", "product_id")
	fake.CreateTable("admins", "email")
	fake.CreateTable("login-attempts", "email")
	fake.CreateTable("sessions", "token")
	fake.CreateTable("email-log", "email_id")

	orderStore := orders.NewStore(fake, "orders")
	authStore := auth.NewStore(fake, "admins", "login-attempts", "sessions")
	mailStore := mail.NewStore(fake, "email-log")

	cfg := HandlerConfig{
		Orders:    orderStore,
		Catalog:   catalog.NewStore(fake, "products"),
		Auth:      auth.NewService(authStore),
		MailStore: mailStore,
		Sender:    mail.NewSender(mailStore, nullSES{}, "no-reply@dapursari.com"),
		Gateway:   payment.NewGateway(testServerKey, false),
		Shipping:  shipping.NewClient("", "", "501", 20000),
		Metrics:   metrics.NewRecorder(nil),

		ServiceFee: 5000,
		CronSecret: testCronToken,
	}

	r := gin.New()
	RegisterRoutes(r, cfg)
	return &testEnv{router: r, orders: orderStore, auth: authStore}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func seedOrder(t *testing.T, e *testEnv, id, status string) {
	t.Helper()
	o := &orders.Order{
		OrderID:       id,
		CustomerName:  "Siti",
		CustomerEmail: "siti@example.com",
		CustomerPhone: "+628123456789",
		Address:       "Jl. Melati 5, Bandung",
		Subtotal:      65000,
		ServiceFee:    5000,
		Total:         70000,
		Status:        status,
		Items:         []orders.Item{{ProductID: "p-1", Name: "Rendang", UnitPrice: 65000, Quantity: 1}},
	}
	if err := e.orders.Create(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func signNotification(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + testServerKey))
	return hex.EncodeToString(sum[:])
}

func TestWebhookSettlementMarksPaid(t *testing.T) {
	e := newTestEnv(t)
	seedOrder(t, e, "order-1", orders.StatusPending)

	body := map[string]string{
		"order_id":           "order-1",
		"status_code":        "200",
		"gross_amount":       "90000.00",
		"transaction_status": "settlement",
		"signature_key":      signNotification("order-1", "200", "90000.00"),
	}
	w := e.do(t, http.MethodPost, "/api/payments/notify", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	o, _ := e.orders.Get(context.Background(), "order-1")
	if o.Status != orders.StatusPaid {
		t.Fatalf("order status = %s, want PAID", o.Status)
	}
}

func TestWebhookBadSignatureMutatesNothing(t *testing.T) {
	e := newTestEnv(t)
	seedOrder(t, e, "order-1", orders.StatusPending)

	body := map[string]string{
		"order_id":           "order-1",
		"status_code":        "200",
		"gross_amount":       "90000.00",
		"transaction_status": "settlement",
		"signature_key":      "forged",
	}
	w := e.do(t, http.MethodPost, "/api/payments/notify", body, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	o, _ := e.orders.Get(context.Background(), "order-1")
	if o.Status != orders.StatusPending {
		t.Fatalf("order mutated to %s on forged signature", o.Status)
	}
}

func TestWebhookExpireCancels(t *testing.T) {
	e := newTestEnv(t)
	seedOrder(t, e, "order-1", orders.StatusAwaitingPayment)

	body := map[string]string{
		"order_id":           "order-1",
		"status_code":        "407",
		"gross_amount":       "90000.00",
		"transaction_status": "expire",
		"signature_key":      signNotification("order-1", "407", "90000.00"),
	}
	w := e.do(t, http.MethodPost, "/api/payments/notify", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	o, _ := e.orders.Get(context.Background(), "order-1")
	if o.Status != orders.StatusCancelled {
		t.Fatalf("order status = %s, want CANCELLED", o.Status)
	}
}

func TestLoginFailureBodiesAreIndistinguishable(t *testing.T) {
	e := newTestEnv(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err := e.auth.CreateAdmin(context.Background(), &auth.Admin{
		Email:        "admin@dapursari.com",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	wrongPassword := e.do(t, http.MethodPost, "/api/admin/login",
		map[string]string{"email": "admin@dapursari.com", "password": "nope"}, nil)
	unknownEmail := e.do(t, http.MethodPost, "/api/admin/login",
		map[string]string{"email": "ghost@dapursari.com", "password": "nope"}, nil)

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d / %d, want 401", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("failure bodies differ:\n%s\n%s", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/api/admin/orders", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAdminTransitionFlow(t *testing.T) {
	e := newTestEnv(t)
	seedOrder(t, e, "order-1", orders.StatusPaid)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err := e.auth.CreateAdmin(context.Background(), &auth.Admin{
		Email:        "admin@dapursari.com",
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	login := e.do(t, http.MethodPost, "/api/admin/login",
		map[string]string{"email": "admin@dapursari.com", "password": "correct"}, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d", login.Code)
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	authz := map[string]string{"Authorization": "Bearer " + loginResp.Token}

	ok := e.do(t, http.MethodPost, "/api/admin/orders/order-1/status",
		map[string]string{"status": orders.StatusFulfilled}, authz)
	if ok.Code != http.StatusOK {
		t.Fatalf("transition status = %d, body = %s", ok.Code, ok.Body.String())
	}

	bad := e.do(t, http.MethodPost, "/api/admin/orders/order-1/status",
		map[string]string{"status": orders.StatusPaid}, authz)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("illegal transition status = %d, want 400", bad.Code)
	}
	var badResp struct {
		Error string `json:"error"`
		From  string `json:"from"`
		To    string `json:"to"`
	}
	if err := json.Unmarshal(bad.Body.Bytes(), &badResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if badResp.Error != "invalid_transition" || badResp.From != orders.StatusFulfilled || badResp.To != orders.StatusPaid {
		t.Fatalf("error body = %+v", badResp)
	}
}

func TestSweepsRequireCronSecret(t *testing.T) {
	e := newTestEnv(t)

	if w := e.do(t, http.MethodPost, "/internal/sweeps/cleanup", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/internal/sweeps/cleanup", nil,
		map[string]string{"Authorization": "Bearer wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", w.Code)
	}

	w := e.do(t, http.MethodPost, "/internal/sweeps/cleanup", nil,
		map[string]string{"Authorization": "Bearer " + testCronToken})
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Deleted != 0 {
		t.Fatalf("deleted = %d, want 0 on empty table", resp.Deleted)
	}
}

func TestGetOrderExposesAllowedTransitions(t *testing.T) {
	e := newTestEnv(t)
	seedOrder(t, e, "order-1", orders.StatusPending)

	w := e.do(t, http.MethodGet, "/api/orders/order-1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Allowed []string `json:"allowed_transitions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := fmt.Sprintf("%v", []string{orders.StatusAwaitingPayment, orders.StatusCancelled})
	if got := fmt.Sprintf("%v", resp.Allowed); got != want {
		t.Fatalf("allowed_transitions = %s, want %s", got, want)
	}
}
