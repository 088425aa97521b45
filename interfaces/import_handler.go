package interfaces

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evidence-hub/domain"
)

type importRequest struct {
	Reviews []domain.ParsedReview `json:"reviews" binding:"required"`
}

type pasteRequest struct {
	Text   string `json:"text" binding:"required"`
	Format string `json:"format"`
}

// ImportReviews imports reviews the client already parsed.
func (h *HTTPHandler) ImportReviews(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Runner.Import(c.Request.Context(), c.Param("id"), req.Reviews)
	h.writeResult(c, res, err)
}

func (h *HTTPHandler) ImportPaste(c *gin.Context) {
	var req pasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reviews := h.Parser.Parse(req.Format, req.Text)
	if len(reviews) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no reviews found in the pasted text"})
		return
	}
	res, err := h.Runner.Import(c.Request.Context(), c.Param("id"), reviews)
	h.writeResult(c, res, err)
}

// ImportFile parses an uploaded export (txt, md, csv, pdf or docx) and imports it.
func (h *HTTPHandler) ImportFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
		return
	}
	defer file.Close()

	text, format, err := h.Extractor.ExtractTextFromFile(file, header.Filename)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		h.writeError(c, fmt.Errorf("%w: %s contains no text", domain.ErrInvalidInput, header.Filename))
		return
	}

	reviews := h.Parser.Parse(format, text)
	if len(reviews) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no reviews found in " + header.Filename})
		return
	}
	h.Log.WithField("file", header.Filename).WithField("reviews", len(reviews)).Info("parsed review upload")

	res, err := h.Runner.Import(c.Request.Context(), c.Param("id"), reviews)
	h.writeResult(c, res, err)
}

// PreviewImport parses without writing anything.
func (h *HTTPHandler) PreviewImport(c *gin.Context) {
	var req pasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.Integrations.GetIntegration(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	reviews := h.Parser.Parse(req.Format, req.Text)
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}
