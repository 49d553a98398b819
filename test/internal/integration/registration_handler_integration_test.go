package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/cache"
	"go-gin-course-booking/internal/gateway"
	"go-gin-course-booking/internal/handler"
	"go-gin-course-booking/internal/middleware"
	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/repository"
	"go-gin-course-booking/internal/service"
	"go-gin-course-booking/internal/worker"
	"go-gin-course-booking/test/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB  *pgxpool.Pool
	testRdb *redis.Client
)

func TestMain(m *testing.M) {
	db, rdb, cleanup, err := testutil.Setup()
	if err != nil {
		log.Fatalf("Failed to setup test environment: %v", err)
	}
	defer cleanup()
	testDB = db
	testRdb = rdb

	code := m.Run()
	os.Exit(code)
}

// fakeGatewayServer 模擬外部金流服務，記錄退款呼叫次數
type fakeGatewayServer struct {
	srv         *httptest.Server
	refundCalls int64
}

func newFakeGatewayServer() *fakeGatewayServer {
	f := &fakeGatewayServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkouts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(gateway.Checkout{
			ID:          "cs_test_integration",
			RedirectURL: "https://pay.example.com/cs_test_integration",
		})
	})
	mux.HandleFunc("/v1/checkouts/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/checkouts/cs_test_") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(gateway.CheckoutResult{PaymentReference: "pi_live_integration"})
	})
	mux.HandleFunc("/v1/refunds", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.refundCalls, 1)
		_ = json.NewEncoder(w).Encode(gateway.Refund{RefundID: "re_test_integration"})
	})
	f.srv = httptest.NewServer(mux)
	return f
}

func (f *fakeGatewayServer) RefundCalls() int64 {
	return atomic.LoadInt64(&f.refundCalls)
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		CancelNoticeHours:         24,
		DefaultBookValidityMonths: 12,
		PendingCheckoutTTL:        30 * time.Minute,
	}
}

// fakeAuth 測試用：直接注入使用者身分，不驗 token
func fakeAuth(userID int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Set(middleware.ContextRoleKey, role)
		c.Next()
	}
}

func setupIntegrationTest(t *testing.T, userID int, role string) (*gin.Engine, *fakeGatewayServer, func()) {
	t.Helper()
	ctx := context.Background()

	cleanupDB(ctx, t)
	cleanupRedis(ctx, t)

	// 初始化所有真實組件
	sessionRepo := repository.NewSessionRepository(testDB)
	registrationRepo := repository.NewRegistrationRepository(testDB)
	sessionBookRepo := repository.NewSessionBookRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)

	gwServer := newFakeGatewayServer()
	paymentGateway := gateway.NewHTTPPaymentGateway(&config.GatewayConfig{
		BaseURL: gwServer.srv.URL,
		APIKey:  "sk_test_integration",
		Timeout: 2 * time.Second,
	})
	pendingStore := cache.NewRedisPendingCheckoutStore(testRdb)
	refundQueue := queue.NewRefundQueue(16)

	bookingService := service.NewBookingService(
		testDB, sessionRepo, registrationRepo, sessionBookRepo, paymentRepo,
		refundQueue, testBookingConfig(),
	)
	paymentService := service.NewPaymentService(
		paymentRepo, sessionRepo, paymentGateway, pendingStore,
		bookingService, refundQueue, testBookingConfig(),
	)

	// 初始化 Worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	refundWorker := worker.NewRefundWorker(paymentService, refundQueue)
	if err := refundWorker.Start(workerCtx); err != nil {
		t.Fatalf("Failed to start refund worker: %v", err)
	}

	// 初始化 Handler 和 Router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := fakeAuth(userID, role)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	handler.NewRegistrationHandler(bookingService).RegisterRoutes(router, auth, adminOnly)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(router, auth)

	cleanup := func() {
		workerCancel()
		time.Sleep(100 * time.Millisecond) // 等待 worker 停止
		gwServer.srv.Close()
		cleanupDB(ctx, t)
		cleanupRedis(ctx, t)
	}

	return router, gwServer, cleanup
}

func cleanupDB(ctx context.Context, t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(ctx, "TRUNCATE payments, registrations, session_books, sessions, courses RESTART IDENTITY CASCADE")
	if err != nil {
		t.Logf("Warning: failed to truncate tables: %v", err)
	}
}

func cleanupRedis(ctx context.Context, t *testing.T) {
	t.Helper()
	err := testRdb.FlushDB(ctx).Err()
	if err != nil {
		t.Logf("Warning: failed to flush redis: %v", err)
	}
}

func createTestCourse(t *testing.T, name string, maxParticipants int, price float64) int {
	t.Helper()
	ctx := context.Background()

	var id int
	err := testDB.QueryRow(ctx, `
		INSERT INTO courses (name, duration_minutes, max_participants, price, is_active)
		VALUES ($1, 60, $2, $3, TRUE)
		RETURNING id
	`, name, maxParticipants, price).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestSession(t *testing.T, courseID int, spots int, startTime time.Time) int {
	t.Helper()
	ctx := context.Background()

	var id int
	err := testDB.QueryRow(ctx, `
		INSERT INTO sessions (course_id, start_time, end_time, available_spots, status)
		VALUES ($1, $2, $3, $4, 'scheduled')
		RETURNING id
	`, courseID, startTime, startTime.Add(time.Hour), spots).Scan(&id)
	require.NoError(t, err)
	return id
}

func getAvailableSpots(t *testing.T, sessionID int) int {
	t.Helper()
	var spots int
	err := testDB.QueryRow(context.Background(), "SELECT available_spots FROM sessions WHERE id = $1", sessionID).Scan(&spots)
	require.NoError(t, err)
	return spots
}

func createJSONRequest(data interface{}) *bytes.Buffer {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

func createHTTPRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request
	var err error

	if body != nil {
		req, err = http.NewRequest(method, url, createJSONRequest(body))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}

	if err != nil {
		return nil
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// TestRegistrationHandler_Integration_ReserveAndCancel 測試完整流程：
// HTTP → Handler → Service → Database，直接預約後再取消
func TestRegistrationHandler_Integration_ReserveAndCancel(t *testing.T) {
	router, _, cleanup := setupIntegrationTest(t, 1, middleware.RoleMember)
	defer cleanup()

	ctx := context.Background()

	// 1. 準備測試資料：72 小時後開課，可取消
	courseID := createTestCourse(t, "Yoga Basics", 10, 500.0)
	sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(72*time.Hour))

	// 2. 發送 HTTP 請求預約
	req := createHTTPRequest("POST", "/api/v1/registrations", model.CreateRegistrationRequest{SessionID: sessionID})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// 3. 驗證 HTTP 回應
	require.Equal(t, http.StatusCreated, w.Code)

	var regResponse model.RegistrationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &regResponse))
	assert.Equal(t, sessionID, regResponse.SessionID)
	assert.Equal(t, string(model.RegistrationStatusConfirmed), regResponse.Status)

	// 4. 驗證資料庫中名額已扣減
	assert.Equal(t, 9, getAvailableSpots(t, sessionID))

	// 5. 驗證付款紀錄為模擬參考
	var externalRef string
	err := testDB.QueryRow(ctx, "SELECT external_ref FROM payments WHERE registration_id = $1", regResponse.ID).Scan(&externalRef)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(externalRef, model.SimulatedRefPrefix))

	// 6. 取消預約
	cancelReq := createHTTPRequest("PUT", "/api/v1/registrations/"+strconv.Itoa(regResponse.ID)+"/cancel", nil)
	cw := httptest.NewRecorder()
	router.ServeHTTP(cw, cancelReq)

	require.Equal(t, http.StatusOK, cw.Code)

	var cancelResponse handler.CancelRegistrationResponse
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &cancelResponse))
	assert.Equal(t, string(model.RegistrationStatusCancelled), cancelResponse.Registration.Status)
	// 模擬付款無法走金流退款
	assert.False(t, cancelResponse.RefundQueued)
	assert.True(t, cancelResponse.ManualRefund)

	// 7. 驗證名額已釋放
	assert.Equal(t, 10, getAvailableSpots(t, sessionID))
}

// TestPaymentHandler_Integration_CheckoutAndRefund 測試完整金流流程：
// 發起結帳 → 完成結帳 → 取消 → Worker 對金流端退款
func TestPaymentHandler_Integration_CheckoutAndRefund(t *testing.T) {
	router, gwServer, cleanup := setupIntegrationTest(t, 1, middleware.RoleMember)
	defer cleanup()

	ctx := context.Background()

	courseID := createTestCourse(t, "Pilates", 10, 800.0)
	sessionID := createTestSession(t, courseID, 10, time.Now().UTC().Add(72*time.Hour))

	// 1. 發起結帳
	startReq := createHTTPRequest("POST", "/api/v1/checkout/sessions", handler.StartCheckoutRequest{
		SessionID:  sessionID,
		SuccessURL: "https://app.example.com/success",
		CancelURL:  "https://app.example.com/cancel",
	})
	sw := httptest.NewRecorder()
	router.ServeHTTP(sw, startReq)

	require.Equal(t, http.StatusCreated, sw.Code)

	var startResponse handler.StartCheckoutResponse
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &startResponse))
	assert.Equal(t, "cs_test_integration", startResponse.CheckoutID)
	assert.NotEmpty(t, startResponse.RedirectURL)

	// 2. 完成結帳，建立預約
	completeReq := createHTTPRequest("POST", "/api/v1/checkout/sessions/complete", handler.CompleteCheckoutRequest{
		CheckoutID: startResponse.CheckoutID,
	})
	cw := httptest.NewRecorder()
	router.ServeHTTP(cw, completeReq)

	require.Equal(t, http.StatusCreated, cw.Code)

	var regResponse model.RegistrationResponse
	require.NoError(t, json.Unmarshal(cw.Body.Bytes(), &regResponse))
	assert.Equal(t, 9, getAvailableSpots(t, sessionID))

	// 3. 驗證付款紀錄帶金流端參考
	var externalRef string
	err := testDB.QueryRow(ctx, "SELECT external_ref FROM payments WHERE registration_id = $1", regResponse.ID).Scan(&externalRef)
	require.NoError(t, err)
	assert.Equal(t, "pi_live_integration", externalRef)

	// 4. 同一筆 checkout 重複完成必須失敗
	retryReq := createHTTPRequest("POST", "/api/v1/checkout/sessions/complete", handler.CompleteCheckoutRequest{
		CheckoutID: startResponse.CheckoutID,
	})
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, retryReq)
	assert.Equal(t, http.StatusNotFound, rw.Code)

	// 5. 取消，退款進隊列
	cancelReq := createHTTPRequest("PUT", "/api/v1/registrations/"+strconv.Itoa(regResponse.ID)+"/cancel", nil)
	xw := httptest.NewRecorder()
	router.ServeHTTP(xw, cancelReq)

	require.Equal(t, http.StatusOK, xw.Code)

	var cancelResponse handler.CancelRegistrationResponse
	require.NoError(t, json.Unmarshal(xw.Body.Bytes(), &cancelResponse))
	assert.True(t, cancelResponse.RefundQueued)
	assert.False(t, cancelResponse.ManualRefund)

	// 6. 等待 Worker 對金流端發起退款（最多等 2 秒）
	assert.Eventually(t, func() bool {
		return gwServer.RefundCalls() == 1
	}, 2*time.Second, 50*time.Millisecond, "worker 應該對金流端發起一次退款")
}

// TestRegistrationHandler_Integration_ConcurrentReserve 測試高併發搶最後一個名額
func TestRegistrationHandler_Integration_ConcurrentReserve(t *testing.T) {
	const attempts = 20

	courseID := -1
	sessionID := -1

	// 每個 goroutine 模擬不同使用者，各自需要自己的 router
	routers := make([]*gin.Engine, attempts)
	cleanups := make([]func(), 0, 1)

	// 共用同一套資料庫狀態：只建一次 stack 裡的資料，
	// router 只是身分不同
	for i := 0; i < attempts; i++ {
		if i == 0 {
			router, _, cleanup := setupIntegrationTest(t, i+1, middleware.RoleMember)
			routers[i] = router
			cleanups = append(cleanups, cleanup)
			courseID = createTestCourse(t, "Spin Class", 1, 300.0)
			sessionID = createTestSession(t, courseID, 1, time.Now().UTC().Add(72*time.Hour))
		} else {
			router, _, cleanup := setupIntegrationTestNoReset(t, i+1, middleware.RoleMember)
			routers[i] = router
			cleanups = append(cleanups, cleanup)
		}
	}
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	conflictCount := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := createHTTPRequest("POST", "/api/v1/registrations", model.CreateRegistrationRequest{SessionID: sessionID})
			w := httptest.NewRecorder()
			routers[idx].ServeHTTP(w, req)

			mu.Lock()
			switch w.Code {
			case http.StatusCreated:
				successCount++
			case http.StatusConflict:
				conflictCount++
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	// 只有一個名額，只能有一個成功
	assert.Equal(t, 1, successCount, "應該只有 1 個請求成功")
	assert.Equal(t, attempts-1, conflictCount, "其餘請求應該都是 409")
	assert.Equal(t, 0, getAvailableSpots(t, sessionID))

	var confirmed int
	err := testDB.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM registrations WHERE session_id = $1 AND status = 'confirmed'", sessionID).Scan(&confirmed)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)
}

// setupIntegrationTestNoReset 與 setupIntegrationTest 相同，但不清資料庫，
// 供併發測試為不同使用者建 router 用
func setupIntegrationTestNoReset(t *testing.T, userID int, role string) (*gin.Engine, *fakeGatewayServer, func()) {
	t.Helper()

	sessionRepo := repository.NewSessionRepository(testDB)
	registrationRepo := repository.NewRegistrationRepository(testDB)
	sessionBookRepo := repository.NewSessionBookRepository(testDB)
	paymentRepo := repository.NewPaymentRepository(testDB)

	refundQueue := queue.NewRefundQueue(16)
	bookingService := service.NewBookingService(
		testDB, sessionRepo, registrationRepo, sessionBookRepo, paymentRepo,
		refundQueue, testBookingConfig(),
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	auth := fakeAuth(userID, role)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	handler.NewRegistrationHandler(bookingService).RegisterRoutes(router, auth, adminOnly)

	return router, nil, func() {}
}
