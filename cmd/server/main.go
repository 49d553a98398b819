package main

import (
	"context"
	"log"

	"go-gin-course-booking/config"
	"go-gin-course-booking/internal/cache"
	"go-gin-course-booking/internal/database"
	"go-gin-course-booking/internal/gateway"
	"go-gin-course-booking/internal/handler"
	"go-gin-course-booking/internal/middleware"
	"go-gin-course-booking/internal/queue"
	"go-gin-course-booking/internal/repository"
	"go-gin-course-booking/internal/service"
	"go-gin-course-booking/internal/worker"
	"go-gin-course-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 不存在時沿用系統環境變數
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	defer logger.Sync()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Repository
	courseRepo := repository.NewCourseRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	sessionBookRepo := repository.NewSessionBookRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// 金流與退款管線
	paymentGateway := gateway.NewHTTPPaymentGateway(&cfg.Gateway)
	pendingStore := cache.NewRedisPendingCheckoutStore(rdb)
	refundQueue, err := queue.NewRedisStreamRefundQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize refund queue: %v", err)
	}

	// Service
	catalogService := service.NewCatalogService(courseRepo, sessionRepo, registrationRepo)
	bookingService := service.NewBookingService(pool, sessionRepo, registrationRepo, sessionBookRepo, paymentRepo, refundQueue, cfg.Booking)
	sessionBookService := service.NewSessionBookService(pool, sessionBookRepo, paymentRepo, cfg.Booking)
	paymentService := service.NewPaymentService(paymentRepo, sessionRepo, paymentGateway, pendingStore, bookingService, refundQueue, cfg.Booking)

	// Worker
	refundWorker := worker.NewRefundWorker(paymentService, refundQueue)
	if err := refundWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start refund worker: %v", err)
	}

	auth := middleware.JWTAuth(cfg.Auth.JWTSecret)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewCourseHandler(catalogService).RegisterRoutes(router, auth, adminOnly)
	handler.NewSessionHandler(catalogService).RegisterRoutes(router, auth, adminOnly)
	handler.NewRegistrationHandler(bookingService).RegisterRoutes(router, auth, adminOnly)
	handler.NewSessionBookHandler(sessionBookService).RegisterRoutes(router, auth)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(router, auth)

	router.Run() // デフォルトで0.0.0.0:8080で待機します
}
