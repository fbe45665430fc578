package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/dapursari/storefront/internal/auth"
	"github.com/dapursari/storefront/internal/aws"
	"github.com/dapursari/storefront/internal/catalog"
	"github.com/dapursari/storefront/internal/config"
	"github.com/dapursari/storefront/internal/handlers"
	"github.com/dapursari/storefront/internal/mail"
	"github.com/dapursari/storefront/internal/metrics"
	"github.com/dapursari/storefront/internal/orders"
	"github.com/dapursari/storefront/internal/payment"
	"github.com/dapursari/storefront/internal/shipping"
	"github.com/dapursari/storefront/internal/storage"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// one client bundle for the whole process; every store and handler
	// shares these handles
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	mailStore := mail.NewStore(clients.DynamoDB, cfg.EmailLogTable)
	hcfg := handlers.HandlerConfig{
		Orders:    orders.NewStore(clients.DynamoDB, cfg.OrdersTable),
		Catalog:   catalog.NewStore(clients.DynamoDB, cfg.ProductsTable),
		Auth:      auth.NewService(auth.NewStore(clients.DynamoDB, cfg.AdminsTable, cfg.LoginAttemptsTable, cfg.SessionsTable)),
		MailStore: mailStore,
		Sender:    mail.NewSender(mailStore, clients.SES, cfg.MailFrom),
		Publisher: aws.NewPublisher(clients.SQS, cfg.MailQueueURL),
		Gateway:   payment.NewGateway(cfg.MidtransServerKey, cfg.MidtransProd),
		Shipping:  shipping.NewClient(cfg.CourierBaseURL, cfg.CourierAPIKey, cfg.OriginCityID, cfg.DefaultShippingCost),
		Uploader:  storage.NewUploader(clients.S3, cfg.ImageBucket, aws.Region()),
		Metrics:   metrics.NewRecorder(clients.CloudWatch),

		ServiceFee: cfg.ServiceFee,
		CronSecret: cfg.CronSecret,
	}

	r := setupRouter(hcfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
