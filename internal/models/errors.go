package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrProductIDRequired = status.Errorf(codes.InvalidArgument, "product id is required")
	ErrProductNotFound   = status.Errorf(codes.NotFound, "product not found in any upstream")
)
