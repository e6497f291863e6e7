package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/performartech/hinis-website/internal/messages"
	"golang.org/x/text/message"
)

// maxBodyBytes caps every JSON or form body accepted from the site.
const maxBodyBytes = 32 * 1024

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
}

func printerFor(c *gin.Context) *message.Printer {
	return messages.Printer(messages.FromAcceptLanguage(c.GetHeader("Accept-Language")))
}
