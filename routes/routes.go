package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"kayak-backend/controllers"
	"kayak-backend/models"
	"kayak-backend/services"
)

// collectionPaths maps URL segments to the schema-less tables behind them.
var collectionPaths = map[string]string{
	"spots":             models.TableSpots,
	"equipment":         models.TableEquipment,
	"cars":              models.TableCars,
	"categories":        models.TableCategories,
	"campsite-bookings": models.TableCampsiteBookings,
}

// Handlers bundles every controller the router mounts.
type Handlers struct {
	Reservations *controllers.ReservationController
	Routes       *controllers.RouteController
	Cascade      *controllers.CascadeController
	Analytics    *controllers.AnalyticsController
	Documents    *controllers.DocumentController
	Collections  map[string]*controllers.CollectionController
}

// NewHandlers wires services and controllers on top of db.
func NewHandlers(db *gorm.DB, cascadeMode string, events services.EventPublisher) Handlers {
	reservationSvc := services.NewReservationService(db, events)
	routeSvc := services.NewRouteService(db, events)
	cascadeSvc := services.NewCascadeService(db, cascadeMode, events)

	h := Handlers{
		Reservations: controllers.NewReservationController(reservationSvc),
		Routes:       controllers.NewRouteController(routeSvc, cascadeSvc),
		Cascade:      controllers.NewCascadeController(cascadeSvc),
		Analytics:    controllers.NewAnalyticsController(services.NewAnalyticsService(reservationSvc, routeSvc)),
		Documents:    controllers.NewDocumentController(services.NewDocumentService(db, events)),
		Collections:  make(map[string]*controllers.CollectionController, len(collectionPaths)),
	}
	for path, table := range collectionPaths {
		h.Collections[path] = controllers.NewCollectionController(services.NewCollectionService(db, table))
	}
	return h
}

// SetupRouter mounts every endpoint under /api. middlewares run after
// recovery and before CORS, in the order given.
func SetupRouter(h Handlers, origins []string, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares...)

	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		reservations := api.Group("/reservations")
		{
			reservations.GET("", h.Reservations.List)
			// before /:id
			reservations.GET("/options", h.Reservations.Options)
			reservations.GET("/:id", h.Reservations.Get)
			reservations.POST("", h.Reservations.Create)
			reservations.PUT("", h.Reservations.Update)
			reservations.PATCH("/:id/status", h.Reservations.ChangeStatus)
			reservations.DELETE("", h.Reservations.Delete)
		}

		routes := api.Group("/routes")
		{
			routes.GET("", h.Routes.List)
			routes.POST("", h.Routes.Create)
			routes.DELETE("", h.Routes.Delete)
		}

		api.POST("/update-bookings-after-route-delete", h.Cascade.ClearRoute)
		api.GET("/analytics/summary", h.Analytics.Summary)

		docs := api.Group("/document-acceptances")
		{
			docs.GET("", h.Documents.List)
			docs.POST("/accept", h.Documents.Accept)
			docs.PATCH("/attach-reservation", h.Documents.AttachReservation)
			docs.DELETE("", h.Documents.Delete)
		}

		for path, cc := range h.Collections {
			g := api.Group("/" + path)
			g.GET("", cc.List)
			g.POST("", cc.Create)
			g.PUT("", cc.Update)
			g.DELETE("", cc.Delete)
		}
	}

	return r
}
