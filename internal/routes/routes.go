package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/agrimandi/internal/config"
	"github.com/example/agrimandi/internal/handlers"
	"github.com/example/agrimandi/internal/middleware"
	"github.com/example/agrimandi/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	smsService := services.NewSMSService(services.SMSConfig{
		BaseURL:  cfg.SMSBaseURL,
		Username: cfg.SMSUsername,
		Password: cfg.SMSPassword,
		Enabled:  cfg.SMSEnabled,
	})

	otpService := services.NewOTPService(services.NewOTPStore(db), smsService)
	identityService := services.NewIdentityService(services.NewUserStore(db), otpService)
	paymentService := services.NewPaymentService(
		services.NewTransactionStore(db),
		services.NewRazorpayService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		telegramService,
	)

	authHandler := handlers.NewAuthHandler(db, cfg)
	aadhaarHandler := handlers.NewAadhaarHandler(cfg, identityService, telegramService)
	otpHandler := handlers.NewOTPHandler(otpService)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService)
	productHandler := handlers.NewProductHandler(db)
	partnerHandler := handlers.NewPartnerHandler(db)
	cartHandler := handlers.NewCartHandler(db)
	profileHandler := handlers.NewProfileHandler(db)

	api := app.Group("/api")

	// Phone- and aadhaar-scoped auth routes (no bearer token).
	api.Post("/send-otp", otpHandler.SendOTP)
	api.Post("/verify-otp", otpHandler.VerifyOTP)
	api.Post("/aadhaar-auth", aadhaarHandler.Handle)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog routes
	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)

	partners := api.Group("/delivery-partners")
	partners.Get("/", partnerHandler.ListPartners)
	partners.Get("/:id", partnerHandler.GetPartner)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/products", productHandler.CreateProduct)
	protected.Put("/products/:id", productHandler.UpdateProduct)
	protected.Delete("/products/:id", productHandler.DeleteProduct)

	protected.Post("/delivery-partners", partnerHandler.CreatePartner)

	protected.Get("/cart", cartHandler.ListCart)
	protected.Post("/cart", cartHandler.AddItem)
	protected.Put("/cart/:id", cartHandler.UpdateItem)
	protected.Delete("/cart/:id", cartHandler.RemoveItem)
	protected.Delete("/cart", cartHandler.ClearCart)

	protected.Post("/payment", paymentHandler.Handle)
	protected.Get("/payment/transactions", paymentHandler.ListTransactions)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
}
