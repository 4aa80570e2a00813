package server

import (
	"errors"
	"net/http"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/storefront-gateway/internal/server/middleware"
	"google.golang.org/grpc/status"
)

const (
	CodeProductIDRequired = "PRODUCT_ID_REQUIRED"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
)

// retryable tells the storefront to offer a retry instead of a dead end.
var retryable = map[string]bool{"retryable": true}

func mapDomainError(err error) *pkgmdw.ResponseError {
	switch {
	case errors.Is(err, models.ErrProductIDRequired):
		return domainError(http.StatusBadRequest, CodeProductIDRequired, err, models.ErrProductIDRequired)
	case errors.Is(err, models.ErrProductNotFound):
		return domainError(http.StatusNotFound, CodeProductNotFound, err, models.ErrProductNotFound)
	}
	return nil
}

func domainError(httpStatus int, code string, err, sentinel error) *pkgmdw.ResponseError {
	resp := pkgmdw.NewResponseError(httpStatus, code, err).WithData(retryable)
	resp.ErrorMessage = status.Convert(sentinel).Message()
	return resp
}
