// Package main camera rental API.
//
// @title           LejGoPro API
// @version         1.0
// @description     camera rental platform (availability, bookings, catalog, payments).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer"
	authctrl "github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/auth"
	availctrl "github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/availability"
	bookingctrl "github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/booking"
	catalogctrl "github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/catalog"
	paymentctrl "github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/payment"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/validation"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/config"
	bookingrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/booking"
	catalogrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/catalog"
	invoicerepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/invoice"
	paymentrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/payment"
	userrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/user"
	allocsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/allocation"
	authsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/auth"
	availsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/availability"
	bookingsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/booking"
	catalogsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/catalog"
	paymentsvc "github.com/Muhammed-Altan/LejGoProLive-sub000/service/payment"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/cache"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
			log.Error("db migrate failed", "err", err)
			os.Exit(1)
		}
	}

	// repos
	ur := userrepo.New(db.Pool)
	cr := catalogrepo.New(db.Pool)
	br := bookingrepo.New(db.Pool)
	pr := paymentrepo.NewHTTP(cfg.PaymentAPIKey)
	ir := invoicerepo.NewHTTP(cfg.InvoiceAPIKey)

	// cache
	resultCache := cache.New()

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	cs := catalogsvc.New(cr, resultCache, time.Duration(cfg.CatalogTTL)*time.Second)
	alloc := allocsvc.New(cr, br)
	avail := availsvc.New(cr, br, resultCache, time.Duration(cfg.AvailabilityTTL)*time.Second)
	bsvc := bookingsvc.New(db.Pool, br, cr, alloc, pr, avail, cfg.ReturnBufferDays,
		bookingsvc.PaymentURLs{Callback: cfg.PaymentCallback, Success: cfg.PaymentSuccess, Cancel: cfg.PaymentCancel}, log)
	psvc := paymentsvc.New(pr, br, ir, avail, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	availC := &availctrl.Controller{Svc: avail, V: v, Log: log, BufferDays: cfg.ReturnBufferDays}
	bookingC := &bookingctrl.Controller{Svc: bsvc, V: v, Log: log}
	catalogC := &catalogctrl.Controller{Svc: cs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: psvc, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Availability: availC,
		Booking:      bookingC,
		Catalog:      catalogC,
		Payment:      paymentC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
