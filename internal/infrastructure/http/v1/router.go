// Package v1 assembles the HTTP API surface: repositories, domain services
// and gin handlers wired over a single pgx pool.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/domain/catalogs/unit"
	"inventra/internal/domain/catalogs/user"
	"inventra/internal/domain/documents/adjustment"
	"inventra/internal/domain/documents/salesorder"
	"inventra/internal/domain/documents/stockcount"
	"inventra/internal/domain/documents/stockrequest"
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/units"
	"inventra/internal/infrastructure/http/v1/handlers"
	"inventra/internal/infrastructure/http/v1/middleware"
	"inventra/internal/infrastructure/numerator"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/internal/infrastructure/storage/postgres/catalog_repo"
	"inventra/internal/infrastructure/storage/postgres/document_repo"
	"inventra/internal/infrastructure/storage/postgres/ledger_repo"
	"inventra/pkg/logger"
)

// RouterConfig carries the external dependencies of the HTTP layer.
type RouterConfig struct {
	Pool      *pgxpool.Pool
	Log       *logger.Logger
	Validator middleware.TokenValidator
}

// NewRouter builds the gin engine with the full dependency graph.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	txm := postgres.NewTxManager(cfg.Pool)

	// Storage.
	ledgerRepo := ledger_repo.NewLedgerRepo(txm)
	branchRepo := catalog_repo.NewBranchRepo(txm)
	unitRepo := catalog_repo.NewUnitRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	userRepo := catalog_repo.NewUserRepo(txm)
	adjustmentRepo := document_repo.NewAdjustmentRepo(txm)
	salesOrderRepo := document_repo.NewSalesOrderRepo(txm)
	transferRepo := document_repo.NewTransferRepo(txm)
	stockCountRepo := document_repo.NewStockCountRepo(txm)
	stockRequestRepo := document_repo.NewStockRequestRepo(txm)

	auditSink, err := postgres.NewAuditSink(txm)
	if err != nil {
		return nil, err
	}

	// Domain.
	converter := units.NewConverter(catalog_repo.NewConversionSource(txm))
	writer := ledger.NewWriter(ledgerRepo, converter, txm)
	gen := numerator.New(cfg.Pool)

	adjustmentSvc := adjustment.NewService(adjustmentRepo, writer, converter, gen, txm)
	salesOrderSvc := salesorder.NewService(
		salesOrderRepo, writer, converter, branchRepo, userRepo, auditSink, gen, txm)
	transferSvc := transfer.NewService(transferRepo, writer, gen, txm)
	stockCountSvc := stockcount.NewService(
		stockCountRepo, adjustmentSvc, writer, converter, gen, txm)
	stockRequestSvc := stockrequest.NewService(stockRequestRepo, transferSvc, gen, txm)

	// HTTP.
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(cfg.Log),
		middleware.ErrorHandler(),
	)

	base := handlers.NewBaseHandler()

	health := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Validator))

	handlers.NewCatalogHandler(base, catalogs.NewService[*branch.Branch](branchRepo),
		func() *branch.Branch { return branch.New("", "", "") }).
		RegisterRoutes(api.Group("/branches"))
	handlers.NewCatalogHandler(base, catalogs.NewService[*unit.Unit](unitRepo),
		func() *unit.Unit { return unit.New("", "", "") }).
		RegisterRoutes(api.Group("/units"))
	handlers.NewCatalogHandler(base, catalogs.NewService[*product.Product](productRepo),
		func() *product.Product { return product.New("", "", "", id.Nil()) }).
		RegisterRoutes(api.Group("/products"))
	handlers.NewCatalogHandler(base, catalogs.NewService[*user.User](userRepo),
		func() *user.User { return user.New("", "", "") }).
		RegisterRoutes(api.Group("/users"))

	handlers.NewAdjustmentHandler(base, adjustmentSvc).
		RegisterRoutes(api.Group("/adjustments"))
	handlers.NewSalesOrderHandler(base, salesOrderSvc).
		RegisterRoutes(api.Group("/sales-orders"))
	handlers.NewTransferHandler(base, transferSvc).
		RegisterRoutes(api.Group("/transfers"))
	handlers.NewStockCountHandler(base, stockCountSvc).
		RegisterRoutes(api.Group("/stock-counts"))
	handlers.NewStockRequestHandler(base, stockRequestSvc).
		RegisterRoutes(api.Group("/stock-requests"))

	handlers.NewStockHandler(base, ledgerRepo, writer).
		RegisterRoutes(api.Group("/stock"))

	return router, nil
}
