package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/auth"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/availability"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/booking"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/catalog"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/app/echoServer/controller/payment"
)

type C struct {
	Auth         *auth.Controller
	Availability *availability.Controller
	Booking      *booking.Controller
	Catalog      *catalog.Controller
	Payment      *payment.Controller
	JWTSecret    string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/login", c.Auth.Login)

	pub.POST("/availability", c.Availability.Query)
	pub.POST("/availability/coarse", c.Availability.QueryCoarse)

	pub.GET("/products", c.Catalog.ListProducts)
	pub.GET("/products/:id", c.Catalog.GetProduct)
	pub.GET("/accessories", c.Catalog.ListAccessories)

	// checkout
	pub.POST("/bookings", c.Booking.Create)

	// provider callback
	pub.POST("/payment/webhook", c.Payment.HandleWebhook)

	// Admin back office
	admin := e.Group("/v1/admin")
	admin.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	admin.Use(requireAdmin)

	admin.POST("/products", c.Catalog.CreateProduct)
	admin.POST("/products/:id/units", c.Catalog.AddCameras)
	admin.POST("/accessories", c.Catalog.CreateAccessory)
	admin.POST("/accessories/:id/instances", c.Catalog.AddAccessoryInstances)
	admin.DELETE("/accessories/instances/:id", c.Catalog.RetireAccessoryInstance)

	admin.GET("/bookings", c.Booking.List)
	admin.GET("/bookings/:id", c.Booking.Get)
	admin.PATCH("/bookings/:id", c.Booking.Update)
	admin.DELETE("/bookings/:id", c.Booking.Delete)
	admin.POST("/returns/process", c.Booking.ProcessReturns)
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tokenObj := ctx.Get("user")
		if tokenObj == nil {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		token, ok := tokenObj.(*jwt.Token)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		role, _ := claims["role"].(string)
		if role != "admin" {
			return ctx.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
		if sub, ok := claims["sub"].(float64); ok {
			ctx.Set("user_id", int64(sub))
		}
		ctx.Set("role", role)
		return next(ctx)
	}
}
