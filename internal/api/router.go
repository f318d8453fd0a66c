package api

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	documents := r.Group("/documents")
	{
		documents.GET("/embedding-status", h.EmbeddingStatus)
		documents.POST("/process-missing-embeddings", h.ProcessMissing)
		documents.POST("/upload", h.UploadDocument)
		documents.POST("/text", h.ProcessText)
		documents.GET("/:id", h.GetDocument)
	}

	r.POST("/qa", h.Answer)

	return r
}
