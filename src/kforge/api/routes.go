package api

import "github.com/gin-gonic/gin"

// RegisterRoutes configures all API routes on the given router
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/", a.handleRoot)

	v1 := router.Group("/v1")
	v1.Use(a.rateLimit("api", a.limits.APIRequestsPerMin))
	{
		v1.GET("/health", a.handleHealth)
		v1.GET("/version", a.handleVersion)

		v1.GET("/versions", a.handleListVersions)
		v1.GET("/versions/:version/patches", a.handleListPatches)

		v1.GET("/bloat-categories", a.handleListBloatCategories)
		v1.GET("/toolchain", a.handleDetectToolchain)

		plans := v1.Group("/plans")
		{
			plans.POST("", a.rateLimit("plan", a.limits.PlanRequestsPerMin), a.handleCreatePlan)
			plans.GET("", a.handleListPlans)
			plans.GET("/:id", a.handleGetPlan)
		}
	}
}
