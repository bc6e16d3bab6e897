package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ledgerline/ledgerline"
	"github.com/ledgerline/ledgerline/api/middleware"
	"github.com/ledgerline/ledgerline/config"
)

type Api struct {
	ledgerline *ledgerline.Ledgerline
	router     *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/jobs/parse_statement/:version_id", a.ParseStatement)

	router.GET("/statement_versions/:version_id", a.GetStatementVersion)
	router.GET("/statement_versions/:version_id/transactions", a.GetTransactions)

	router.GET("/health", a.Health)
	return a.router
}

func NewAPI(l *ledgerline.Ledgerline) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{ledgerline: l, router: r}
}
