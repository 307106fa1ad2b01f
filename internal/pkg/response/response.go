package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/cisbeo/scorpiusProject-sub002/internal/pkg/errcode"
)

// apiError is what proxyutil needs to put an errcode into the envelope.
type apiError struct {
	code int
	msg  string
}

func (e *apiError) Error() string {
	return e.msg
}

func (e *apiError) Code() uint32 {
	return uint32(e.code)
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error aborts with the {code,msg,data} envelope. The HTTP status stays 200;
// callers tell failures apart by code. An empty msg uses the code's default.
func Error(c *gin.Context, code int, msg string) {
	if msg == "" {
		msg = errcode.Message(code)
	}
	proxyutil.FailJson(c, http.StatusOK, &apiError{code: code, msg: msg})
}
