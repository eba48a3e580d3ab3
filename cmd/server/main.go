package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sourcing-marketplace-service/internal/config"
	"sourcing-marketplace-service/internal/controller"
	"sourcing-marketplace-service/internal/metrics"
	"sourcing-marketplace-service/internal/middleware"
	"sourcing-marketplace-service/internal/rabbit"
	"sourcing-marketplace-service/internal/repository"
	"sourcing-marketplace-service/internal/service"
	"sourcing-marketplace-service/internal/storage"
	"sourcing-marketplace-service/internal/stream"
)

func main() {
	cfg := config.Load()

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Mongo no responde:", err)
	}
	db := client.Database(cfg.MongoDBName)

	// Repositorios
	orderRepo := repository.NewMongoOrderRepository(db)
	convRepo := repository.NewMongoConversationRepository(db)
	msgRepo := repository.NewMongoMessageRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	notifRepo := repository.NewMongoNotificationRepository(db)
	txRepo := repository.NewMongoTransactionRepository(db)
	paymentRepo := repository.NewMongoPaymentMethodRepository(db)
	payoutRepo := repository.NewMongoPayoutMethodRepository(db)
	txn := repository.NewTxnRunner(client)

	blobs := storage.NewDiskStore(cfg.UploadDir, cfg.BaseURL)

	// Conexión a RabbitMQ
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("Error conectando a RabbitMQ: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Error creando canal en RabbitMQ: %v", err)
	}

	publisher, err := rabbit.NewPublisher(ch)
	if err != nil {
		log.Fatalf("Error declarando exchange de eventos: %v", err)
	}

	// Servicios
	orderService := service.NewOrderService(orderRepo, convRepo, msgRepo, userRepo, notifRepo, txRepo, paymentRepo, txn, publisher)
	messageService := service.NewMessageService(convRepo, msgRepo, userRepo, notifRepo, txn, blobs)
	notificationService := service.NewNotificationService(notifRepo)
	billingService := service.NewBillingService(paymentRepo, payoutRepo, txRepo)
	userService := service.NewUserService(userRepo, cfg.AdminEmail, cfg.JWTSecret, cfg.TokenTTL)

	// Suscripciones en tiempo real sobre change streams
	hub := stream.NewHub()
	watcher := stream.NewWatcher(db, hub)
	watcher.Run(context.Background())

	// Handlers
	orderCtl := controller.NewOrderController(orderService)
	messageCtl := controller.NewMessageController(messageService)
	notificationCtl := controller.NewNotificationController(notificationService)
	billingCtl := controller.NewBillingController(billingService)
	userCtl := controller.NewUserController(userService, orderService)
	streamCtl := controller.NewStreamController(hub, messageService)

	// Router
	r := gin.Default()
	r.Use(metrics.Middleware())

	// Rutas públicas
	r.POST("/auth/signup", userCtl.Signup)
	r.POST("/auth/login", userCtl.Login)
	r.GET("/metrics", metrics.Handler())
	r.Static("/uploads", cfg.UploadDir)

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	auth.GET("/users/me", userCtl.Me)
	auth.PATCH("/users/me/profile", userCtl.UpdateProfile)
	auth.PATCH("/users/me/preferences", userCtl.UpdatePreferences)

	auth.POST("/orders", orderCtl.Create)
	auth.GET("/orders", orderCtl.List)
	auth.GET("/orders/:orderId", orderCtl.Get)
	auth.DELETE("/orders/:orderId", orderCtl.Delete)
	auth.POST("/orders/:orderId/cancel", orderCtl.Cancel)
	auth.POST("/orders/:orderId/payment", orderCtl.Pay)
	auth.POST("/orders/:orderId/cash-payment", orderCtl.ArrangeCash)

	auth.GET("/conversations/:conversationId/messages", messageCtl.List)
	auth.POST("/conversations/:conversationId/messages", messageCtl.Send)

	auth.GET("/notifications", notificationCtl.List)
	auth.PATCH("/notifications/:id/read", notificationCtl.MarkRead)
	auth.POST("/notifications/read-all", notificationCtl.MarkAllRead)

	auth.POST("/payment-methods", billingCtl.AddPaymentMethod)
	auth.GET("/payment-methods", billingCtl.ListPaymentMethods)
	auth.PATCH("/payment-methods/:id", billingCtl.UpdatePaymentMethod)
	auth.DELETE("/payment-methods/:id", billingCtl.DeletePaymentMethod)
	auth.GET("/transactions", billingCtl.ListTransactions)

	auth.GET("/events/orders", streamCtl.Orders)
	auth.GET("/events/notifications", streamCtl.Notifications)
	auth.GET("/events/conversations/:id", streamCtl.Conversation)

	// Rutas admin
	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/orders/:orderId/quote", orderCtl.Quote)
	admin.POST("/orders/:orderId/confirm-cash", orderCtl.ConfirmCash)
	admin.POST("/orders/:orderId/ship", orderCtl.Ship)
	admin.POST("/orders/:orderId/deliver", orderCtl.Deliver)
	admin.GET("/customers", orderCtl.Customers)
	admin.PATCH("/users/:id/block", userCtl.Block)
	admin.POST("/payout-methods", billingCtl.AddPayoutMethod)
	admin.GET("/payout-methods", billingCtl.ListPayoutMethods)
	admin.PATCH("/payout-methods/:id", billingCtl.UpdatePayoutMethod)
	admin.DELETE("/payout-methods/:id", billingCtl.DeletePayoutMethod)

	rabbit.SetupConsumers(ch, orderService)

	// Ejecutar servidor
	log.Printf("Sourcing Marketplace Service ejecutándose en puerto %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
