package middlewares

import (
	"net/http"
	"runtime/debug"

	"github.com/sanchit-4/universal-nft/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var somethingWentWrong = errors.INTERNAL_ERROR.New("something went wrong")

// PanicRecovery turns a panic in the handler chain into an INTERNAL_ERROR response.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorf("panic-recovery middleware recovered from panic: %v", rec)
				log.Errorf("stack trace: %v", string(debug.Stack()))
				WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
					Code:    somethingWentWrong.Code(),
					Name:    somethingWentWrong.CodeName(),
					Message: somethingWentWrong.Error(),
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
