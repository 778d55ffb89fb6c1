package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONIssues reports a validation failure with the offending fields.
func JSONIssues(c *gin.Context, code int, message string, issues interface{}) {
	c.JSON(code, gin.H{"success": false, "error": message, "issues": issues})
}
