package api

import "github.com/gin-gonic/gin"

func AbortWithError(ctx *gin.Context, status int, code string, err error) {
	ctx.Error(err)
	ctx.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: err.Error(),
	})
}
