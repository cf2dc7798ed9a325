package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/suPer8Hu/gopherchat/internal/auth"
	"github.com/suPer8Hu/gopherchat/internal/common"
	"github.com/suPer8Hu/gopherchat/internal/controller"
)

func statusFor(err error) (httpStatus, code int) {
	if errors.Is(err, auth.ErrEmailTaken) {
		return http.StatusConflict, 10003
	}
	switch common.KindOf(err) {
	case common.KindValidation:
		return http.StatusBadRequest, 10002
	case common.KindAuth:
		return http.StatusUnauthorized, 40101
	case common.KindStore:
		return http.StatusBadGateway, 50201
	case common.KindCompletion:
		return http.StatusBadGateway, 50202
	default:
		return http.StatusInternalServerError, 50000
	}
}

func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	common.Fail(c, status, code, controller.Notice(err))
}
