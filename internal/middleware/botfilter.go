package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// IsBotKey is the context key set for crawler traffic.
const IsBotKey = "is_bot"

// botPatterns are lowercase User-Agent substrings of crawlers and link
// previewers that should never start a campaign session.
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "whatsapp", "telegrambot",
	"slackbot", "discordbot", "applebot", "semrushbot",
	"ahrefsbot", "mj12bot", "dotbot", "petalbot", "bytespider",
	"adsbot-google", "mediapartners-google", "headlesschrome",
}

// BotFilter flags requests from known bots or without a User-Agent.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := strings.ToLower(c.Request.UserAgent())
		if ua == "" || isBot(ua) {
			c.Set(IsBotKey, true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter flagged the request.
func IsBot(c *gin.Context) bool {
	return c.GetBool(IsBotKey)
}

func isBot(ua string) bool {
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
