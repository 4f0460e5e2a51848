package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"churchhub/api"
	"churchhub/config"
	"churchhub/middleware"
	"churchhub/models"
	"churchhub/services"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	config.LoadConfig()

	dsn := config.AppConfig.DBConnectionString
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		PrepareStmt:    true,
		TranslateError: true, // duplicate-key errors become gorm.ErrDuplicatedKey
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database pool setup failed: %v", err)
	}
	sqlDB.SetMaxIdleConns(config.AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(config.AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(
		&models.Person{},
		&models.Household{},
		&models.Group{},
		&models.Subgroup{},
		&models.GroupMember{},
		&models.ChurchUser{},
		&models.Event{},
		&models.EventCheckIn{},
	)
	if err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
		PoolSize: config.AppConfig.RedisPoolSize,
	})

	ctx := context.Background()
	if _, err = rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	log.Println("redis connected")

	// Kafka is optional: without it the check-in feed broadcasts locally.
	kafkaService, err := services.NewKafkaService()
	if err != nil {
		log.Printf("warning: kafka unavailable: %v", err)
		log.Println("running without the check-in stream, feed is instance-local")
		kafkaService = nil
	}

	hub := services.NewFeedHub(rdb, kafkaService)
	go hub.Run()

	if config.AppConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RateLimiter(rdb))
	r.Use(middleware.JWTAuth())

	api.RegisterRoutes(r, db, rdb, hub)

	srv := services.StartServer(r, config.AppConfig.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	// Stops the feed hub, closing the Kafka connection with it.
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown:", err)
	}

	log.Println("server stopped")
}
