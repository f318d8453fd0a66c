package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/ingest"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/storage/docstore"
	"docqa/internal/vectorindex"
	"docqa/pkg/logger"
)

// DocumentService is the ingestion surface consumed by the handlers.
type DocumentService interface {
	IngestText(ctx context.Context, content, filename string, meta models.Metadata) (*models.DocumentRecord, error)
	IngestUpload(ctx context.Context, file io.Reader, filename string, meta models.Metadata) (*models.DocumentRecord, error)
	GetContent(ctx context.Context, id string) (string, error)
}

// AnswerService is the question-answering surface consumed by the handlers.
type AnswerService interface {
	GenerateAnswer(ctx context.Context, req rag.AnswerRequest) models.AnswerResult
}

// Handler bundles the HTTP endpoint handlers.
type Handler struct {
	documents DocumentService
	index     vectorindex.Indexer
	answerer  AnswerService
	log       *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(documents DocumentService, index vectorindex.Indexer, answerer AnswerService, log *logger.Logger) *Handler {
	return &Handler{documents: documents, index: index, answerer: answerer, log: log}
}

// TextDocumentRequest is the JSON body for direct text ingestion.
type TextDocumentRequest struct {
	Content  string          `json:"content" binding:"required"`
	Filename string          `json:"filename"`
	Metadata models.Metadata `json:"metadata"`
}

// DocumentResponse is returned by the document endpoints.
type DocumentResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

// QARequest is the JSON body for question answering.
type QARequest struct {
	Query       string  `json:"query" binding:"required"`
	History     string  `json:"history"`
	TopK        int     `json:"top_k"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
}

// ProcessText ingests a text document and indexes its content.
func (h *Handler) ProcessText(c *gin.Context) {
	var req TextDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.documents.IngestText(c.Request.Context(), req.Content, req.Filename, req.Metadata)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing text: %v", err)})
		return
	}

	if err := h.index.CreateDocumentEmbeddings(c.Request.Context(), rec.ID, req.Content, rec.Metadata); err != nil {
		h.log.Error(fmt.Sprintf("Failed to index document %s: %v", rec.ID, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating document embeddings"})
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		DocumentID: rec.ID,
		Filename:   rec.Filename,
		Size:       rec.SizeBytes,
		Success:    true,
	})
}

// UploadDocument ingests an uploaded file and indexes its extracted content
// when it is usable. Uploads whose extraction failed still succeed: the
// failure is visible in the stored content, not in the response status.
func (h *Handler) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error reading upload: %v", err)})
		return
	}
	defer file.Close()

	rec, err := h.documents.IngestUpload(c.Request.Context(), file, fileHeader.Filename, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing document: %v", err)})
		return
	}

	if ingest.Indexable(rec.Content) {
		if err := h.index.CreateDocumentEmbeddings(c.Request.Context(), rec.ID, rec.Content, rec.Metadata); err != nil {
			h.log.Error(fmt.Sprintf("Failed to index document %s: %v", rec.ID, err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating document embeddings"})
			return
		}
	}

	c.JSON(http.StatusOK, DocumentResponse{
		DocumentID: rec.ID,
		Filename:   rec.Filename,
		Size:       rec.SizeBytes,
		Success:    true,
	})
}

// GetDocument returns the stored content of a document.
func (h *Handler) GetDocument(c *gin.Context) {
	id := c.Param("id")

	content, err := h.documents.GetContent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error reading document: %v", err)})
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		DocumentID: id,
		Filename:   id + ".txt",
		Size:       int64(len(content)),
		Success:    true,
	})
}

// EmbeddingStatus reports the embedding-index health.
func (h *Handler) EmbeddingStatus(c *gin.Context) {
	status, err := h.index.VerifyDocumentEmbeddings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error verifying embeddings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ProcessMissing runs the reconciliation sweep for unindexed documents.
func (h *Handler) ProcessMissing(c *gin.Context) {
	report, err := h.index.ProcessMissingEmbeddings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error processing missing embeddings: %v", err)})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Answer handles a question-answering request. The pipeline never raises:
// failures surface as Success=false results with fixed answers.
func (h *Handler) Answer(c *gin.Context) {
	var req QARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.answerer.GenerateAnswer(c.Request.Context(), rag.AnswerRequest{
		Query:       req.Query,
		History:     req.History,
		TopK:        req.TopK,
		Model:       req.Model,
		Temperature: req.Temperature,
	})

	c.JSON(http.StatusOK, result)
}
