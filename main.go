package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"skateshop/internal/cache"
	"skateshop/internal/config"
	"skateshop/internal/handlers"
	"skateshop/internal/models"
	"skateshop/internal/repositories"
	"skateshop/internal/routes"
	"skateshop/internal/services"
	"skateshop/pkg/rabbitmq"
)

// NewApp wires repositories, services, and handlers onto a Fiber app.
// The event publisher may be nil when the message broker is down.
func NewApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher, cacheClient *cache.Client) (*fiber.App, *services.AuthService) {
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	productService := services.NewProductService(productRepo, cacheClient)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, events)

	app := fiber.New(fiber.Config{
		AppName: "Skateshop API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
	}))

	routes.Register(app, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Product: handlers.NewProductHandler(productService),
		Cart:    handlers.NewCartHandler(cartService),
		Order:   handlers.NewOrderHandler(orderService, cartService),
	}, authService)

	return app, authService
}

// Migrate runs the schema migrations for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariation{},
		&models.Review{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
}

func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// The broker being down should not keep the shop from serving;
	// order events are simply skipped until restart.
	var events services.EventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("RabbitMQ unavailable, order events disabled: %v", err)
	} else {
		events = mqClient
		defer mqClient.Close()
	}

	app, _ := NewApp(cfg, db, events, cacheClient)

	// Sweep carts whose sliding window lapsed. Expired carts are also
	// emptied on access, so the sweeper only reclaims abandoned rows.
	cartRepo := repositories.NewGORMCartRepository(db)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := cartRepo.DeleteExpired(time.Now())
			if err != nil {
				log.Printf("Failed to sweep expired carts: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Removed %d expired carts", removed)
			}
		}
	}()

	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		if consumerErr := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Order event %s (tag %d): %s", msg.Type, msg.DeliveryTag, string(msg.Body))
			return nil
		}); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	log.Printf("Starting server on %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
