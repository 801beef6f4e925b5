package handlers

import "github.com/gin-gonic/gin"

const (
	ToastTypeSuccess = "success"
	ToastTypeInfo    = "info"
	ToastTypeWarning = "warning"
	ToastTypeError   = "error"
)

// SetToast sets the X-Toast-* headers the console turns into notifications.
func SetToast(c *gin.Context, typ, title, msg string) {
	if c == nil {
		return
	}
	if typ != "" {
		c.Header("X-Toast-Type", typ)
	}
	if title != "" {
		c.Header("X-Toast-Title", title)
	}
	if msg != "" {
		c.Header("X-Toast-Message", msg)
	}
}

func ToastSuccess(c *gin.Context, title, msg string) { SetToast(c, ToastTypeSuccess, title, msg) }
func ToastInfo(c *gin.Context, title, msg string)    { SetToast(c, ToastTypeInfo, title, msg) }
func ToastWarn(c *gin.Context, title, msg string)    { SetToast(c, ToastTypeWarning, title, msg) }
func ToastError(c *gin.Context, title, msg string)   { SetToast(c, ToastTypeError, title, msg) }
