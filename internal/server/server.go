package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/subforge/renewals/internal/config"
	"github.com/subforge/renewals/internal/discount"
	discountdomain "github.com/subforge/renewals/internal/discount/domain"
	"github.com/subforge/renewals/internal/gateway"
	"github.com/subforge/renewals/internal/order"
	orderdomain "github.com/subforge/renewals/internal/order/domain"
	"github.com/subforge/renewals/internal/payment"
	paymentdomain "github.com/subforge/renewals/internal/payment/domain"
	"github.com/subforge/renewals/internal/pricing"
	"github.com/subforge/renewals/internal/subscription"
	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	gateway.Module,
	tax.Module,
	discount.Module,
	pricing.Module,
	order.Module,
	subscription.Module,
	payment.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	genID  *snowflake.Node

	subscriptionSvc subscriptiondomain.Service
	orderSvc        orderdomain.Service
	discountSvc     discountdomain.Service
	paymentSvc      paymentdomain.Service
	pricingSvc      *pricing.Calculator
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node

	SubscriptionSvc subscriptiondomain.Service
	OrderSvc        orderdomain.Service
	DiscountSvc     discountdomain.Service
	PaymentSvc      paymentdomain.Service
	PricingSvc      *pricing.Calculator
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		log:    p.Log.Named("http.server"),
		db:     p.DB,
		genID:  p.GenID,

		subscriptionSvc: p.SubscriptionSvc,
		orderSvc:        p.OrderSvc,
		discountSvc:     p.DiscountSvc,
		paymentSvc:      p.PaymentSvc,
		pricingSvc:      p.PricingSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Subscriptions --------
	v1.GET("/subscriptions", s.ListSubscriptions)
	v1.POST("/subscriptions", s.CreateSubscription)
	v1.GET("/subscriptions/count", s.CountSubscriptions)
	v1.GET("/subscriptions/export", s.ExportSubscriptions)
	v1.GET("/subscriptions/:id", s.GetSubscriptionByID)
	v1.PATCH("/subscriptions/:id", s.UpdateSubscription)
	v1.DELETE("/subscriptions/:id", s.DeleteSubscription)
	v1.POST("/subscriptions/:id/activate", s.ActivateSubscription)
	v1.POST("/subscriptions/:id/cancel", s.CancelSubscription)
	v1.POST("/subscriptions/:id/expire", s.ExpireSubscription)
	v1.POST("/subscriptions/:id/retry", s.RetrySubscription)
	v1.POST("/subscriptions/:id/payments", s.AddSubscriptionPayment)
	v1.GET("/subscriptions/:id/orders", s.ListSubscriptionOrders)
	v1.GET("/subscriptions/:id/notes", s.ListSubscriptionNotes)
	v1.POST("/subscriptions/:id/notes", s.AddSubscriptionNote)

	// -------- Orders --------
	v1.GET("/orders/:id", s.GetOrderByID)

	// -------- Discounts --------
	v1.GET("/discounts", s.ListDiscounts)
	v1.POST("/discounts", s.CreateDiscount)
	v1.GET("/discounts/:id", s.GetDiscountByID)
	v1.POST("/discounts/:id/deactivate", s.DeactivateDiscount)

	// -------- Pricing --------
	v1.POST("/pricing/quote", s.QuotePricing)

	// -------- Payment Webhooks --------
	v1.POST("/webhooks/:gateway", s.HandlePaymentWebhook)
}
