// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/contoso/storefront/internal/handlers"
	"github.com/contoso/storefront/internal/middleware"
	"github.com/contoso/storefront/internal/services"
)

type Services struct {
	Products *services.ProductService
	Orders   *services.OrderService
	Media    *services.MediaService
	Users    *services.UserService
}

func Initialize(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.Default())
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	productHandler := handlers.NewProductHandler(svc.Products)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	mediaHandler := handlers.NewMediaHandler(svc.Media)
	userHandler := handlers.NewUserHandler(svc.Users)

	v1 := r.Group("/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}
		v1.GET("/categories", productHandler.ListCategories)

		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("", orderHandler.CreateOrder)
		}

		media := v1.Group("/media")
		{
			media.GET("/url", mediaHandler.ResolveURL)
			media.POST("/images", middleware.UploadRateLimit(), mediaHandler.UploadImage)
		}

		users := v1.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.GetUserByEmail)
		}
	}

	return r
}
