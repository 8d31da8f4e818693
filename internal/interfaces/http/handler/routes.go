package handler

import (
	"github.com/factuurdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// DocumentRoutes mounts rendering of invoice PDFs and preview sessions
// under /invoices
func DocumentRoutes(documents *DocumentHandler, previews *PreviewHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("documents", "/invoices")
	group.Use(middleware...)

	group.GET("/:id/pdf", documents.DownloadPDF)
	group.GET("/:id/attachment", documents.Attachment)
	group.POST("/:id/previews", previews.StartPreview)

	return group
}

// PreviewRoutes mounts the preview session resource
func PreviewRoutes(previews *PreviewHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("previews", "/previews")
	group.Use(middleware...)

	group.GET("/:session_id", previews.GetPreview)
	group.POST("/:session_id/retry", previews.RetryPreview)
	group.DELETE("/:session_id", previews.ClosePreview)

	return group
}

// SystemRoutes mounts info and ping under /system
func SystemRoutes(system *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")
	group.GET("/info", system.GetSystemInfo)
	group.GET("/ping", system.Ping)
	return group
}
