package handler

import (
	"errors"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/logger"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FieldError 可由 client 修正的欄位錯誤
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func init() {
	// 錯誤明細的欄位名稱使用 json / form / uri tag，與 client 送出的一致
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, key := range []string{"json", "form", "uri"} {
				name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})
	}
}

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBindError(c, err)
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondBindError(c, err)
		return err
	}
	return nil
}

func BindUri(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindUri(obj); err != nil {
		respondBindError(c, err)
		return err
	}
	return nil
}

func respondBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": apperrors.ErrInvalidInput.Msg,
		})
		return
	}

	details := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, FieldError{
			Field:  fe.Field(),
			Reason: fieldReason(fe),
		})
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   apperrors.ErrInvalidInput.Msg,
		"details": details,
	})
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alphanum":
		return "must be alphanumeric"
	default:
		return "failed on " + fe.Tag()
	}
}

// parseUUIDParam 解析路徑上的 uuid，失敗時直接回 400
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": apperrors.ErrInvalidInput.Msg,
			"details": []FieldError{
				{Field: name, Reason: "must be a valid uuid"},
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(
		zap.String("operation", operation),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	status := apperrors.KindOf(err).HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}

	c.JSON(status, gin.H{"error": apperrors.Message(err)})
}

func handleSuccess(c *gin.Context, data interface{}, statusCode int) {
	if data == nil {
		c.Status(statusCode)
		return
	}
	c.JSON(statusCode, data)
}
