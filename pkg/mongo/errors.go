package mongo

import "errors"

var (
	ErrMissingConnectionURL   = errors.New("mongodb connection url is not set")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongodb")
	ErrHealthcheckFailed      = errors.New("mongodb healthcheck failed")
)
