package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sumRequest struct {
	Num1 *float64 `json:"num1" form:"num1"`
	Num2 *float64 `json:"num2" form:"num2"`
}

// Sum складывает два числа из формы или JSON
func Sum(c *gin.Context) {
	var req sumRequest
	if err := c.ShouldBind(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "num1 and num2 must be numbers")
		return
	}
	if req.Num1 == nil || req.Num2 == nil {
		errorJSON(c, http.StatusBadRequest, "num1 and num2 are required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"number1": *req.Num1,
		"number2": *req.Num2,
		"result":  *req.Num1 + *req.Num2,
	})
}
