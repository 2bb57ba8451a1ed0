package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nexusvending/vending_backend/models"
	"github.com/nexusvending/vending_backend/models/reports"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/nexusvending/vending_backend/workflow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func registerRoutes(r *gin.Engine, keepAlive *workflow.KeepAlive) {
	products := r.Group("/products")
	products.GET("", listHandler(models.ListProducts))
	products.POST("", createHandler(models.CreateProduct))
	products.GET("/:id", getHandler(models.GetProduct))
	products.PUT("/:id", updateHandler(models.UpdateProduct))
	products.DELETE("/:id", getHandler(models.DeleteProduct))

	suppliers := r.Group("/suppliers")
	suppliers.GET("", listHandler(models.ListSuppliers))
	suppliers.POST("", createHandler(models.CreateSupplier))
	suppliers.GET("/:id", getHandler(models.GetSupplier))
	suppliers.PUT("/:id", updateHandler(models.UpdateSupplier))
	suppliers.DELETE("/:id", getHandler(models.DeleteSupplier))

	purchases := r.Group("/purchases")
	purchases.GET("", listHandler(models.ListPurchases))
	purchases.POST("", tracedCreateHandler("RecordPurchase", models.RecordPurchase))
	purchases.GET("/page", pageHandler(models.PaginatePurchases))
	purchases.GET("/:id", getHandler(models.GetPurchase))
	purchases.DELETE("/:id", tracedGetHandler("DeletePurchase", models.DeletePurchase))

	stock := r.Group("/stock")
	stock.GET("", listHandler(models.ListStock))
	stock.GET("/page", pageHandler(models.PaginateStock))
	stock.GET("/:productId", getHandler(models.GetStockEntry))
	stock.GET("/:productId/history", getHandler(models.ListStockHistories))

	loads := r.Group("/machine-loads")
	loads.GET("", listHandler(models.ListMachineLoads))
	loads.POST("", tracedCreateHandler("RecordMachineLoad", models.RecordMachineLoad))
	loads.GET("/page", pageHandler(models.PaginateMachineLoads))

	quotes := r.Group("/quotes")
	quotes.GET("", listHandler(models.ListQuotes))
	quotes.POST("", createHandler(models.CreateQuote))
	quotes.GET("/:id", getHandler(models.GetQuote))
	quotes.DELETE("/:id", getHandler(models.DeleteQuote))

	notes := r.Group("/delivery-notes")
	notes.GET("", listHandler(models.ListDeliveryNotes))
	notes.POST("", createHandler(models.CreateDeliveryNote))
	notes.GET("/:id", getHandler(models.GetDeliveryNote))
	notes.DELETE("/:id", getHandler(models.DeleteDeliveryNote))

	r.GET("/reports/stock-summary", listHandler(reports.GetStockSummaryReport))
	r.GET("/reports/stock-summary/export", stockExportHandler())

	internal := r.Group("/internal")
	internal.GET("/keepalive", func(c *gin.Context) {
		c.JSON(http.StatusOK, keepAlive.Status())
	})
	internal.POST("/keepalive/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, keepAlive.Ping(c.Request.Context()))
	})
	internal.GET("/outbox/:referenceType/:referenceId", stockEventHandler(models.GetStockEventStatus))
	internal.POST("/outbox/:referenceType/:referenceId/replay", stockEventHandler(models.ReplayStockEvents))
}

func stockEventHandler(fn func(ctx context.Context, referenceType models.StockReferenceType, referenceId int) (*models.StockEventStatus, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		refType, err := models.ParseStockReferenceType(c.Param("referenceType"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		refId, err := strconv.Atoi(c.Param("referenceId"))
		if err != nil || refId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference id"})
			return
		}
		status, err := fn(c.Request.Context(), refType, refId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var bindErr validator.ValidationErrors
	switch {
	case errors.As(err, &bindErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": utils.ProcessValidationErrors(err)})
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case utils.IsRecordNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// pathId reads the first path parameter as a positive int.
func pathId(c *gin.Context) (int, bool) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Param("productId")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id " + strconv.Quote(raw)})
		return 0, false
	}
	return id, true
}

func listHandler[T any](fn func(ctx context.Context) ([]*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := fn(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getHandler[T any](fn func(ctx context.Context, id int) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		result, err := fn(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func createHandler[I any, T any](fn func(ctx context.Context, input *I) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input I
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
		result, err := fn(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func updateHandler[I any, T any](fn func(ctx context.Context, id int, input *I) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input I
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, bindError(err))
			return
		}
		result, err := fn(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func pageHandler[T models.Cursor](fn func(ctx context.Context, limit int, after *string) (*models.Connection[T], error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}
		var after *string
		if v, ok := c.GetQuery("after"); ok {
			after = &v
		}
		conn, err := fn(c.Request.Context(), limit, after)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

// bindError keeps validator errors for the field report and turns malformed
// JSON into a ValidationError.
func bindError(err error) error {
	var bindErr validator.ValidationErrors
	if errors.As(err, &bindErr) {
		return err
	}
	return utils.NewValidationError("invalid request body: %v", err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func tracedCreateHandler[I any, T any](name string, fn func(ctx context.Context, input *I) (*T, error)) gin.HandlerFunc {
	return createHandler(func(ctx context.Context, input *I) (result *T, err error) {
		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("operation", name)))
		defer func() { endSpan(span, err) }()
		return fn(ctx, input)
	})
}

func tracedGetHandler[T any](name string, fn func(ctx context.Context, id int) (T, error)) gin.HandlerFunc {
	return getHandler(func(ctx context.Context, id int) (result T, err error) {
		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("operation", name),
			attribute.Int("id", id),
		))
		defer func() { endSpan(span, err) }()
		return fn(ctx, id)
	})
}

func stockExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := reports.GetStockSummaryReport(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		filename := "stock-" + time.Now().UTC().Format("20060102") + ".xlsx"
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := reports.WriteStockWorkbook(c.Writer, data); err != nil {
			_ = c.Error(err)
		}
	}
}
