package response

import "github.com/gin-gonic/gin"

// Message writes the {message} error envelope used by the lists and
// profile-upsert endpoints.
func Message(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"message": message,
	})
}

// MessageWithDetails attaches the remote error body (or any diagnostic
// payload) alongside the message.
func MessageWithDetails(c *gin.Context, statusCode int, message string, details any) {
	c.JSON(statusCode, gin.H{
		"message": message,
		"details": details,
	})
}

// Error writes the {error} envelope used by the pass-through endpoints.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": message,
	})
}

// MissingAPIKeyMessage is the body of every missing-credential response.
const MissingAPIKeyMessage = "server is not configured with a Klaviyo API key"

// ConfigError reports a missing server-side credential through the {message}
// envelope. No remote call is attempted on this path.
func ConfigError(c *gin.Context) {
	Message(c, 500, MissingAPIKeyMessage)
}

// ConfigErrorPassThrough reports the same condition through the {error}
// envelope the pass-through endpoints use.
func ConfigErrorPassThrough(c *gin.Context) {
	Error(c, 500, MissingAPIKeyMessage)
}
