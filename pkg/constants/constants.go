package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey       ContextKey = "app"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	ParamsKey    ContextKey = "params"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "requestStart"
	AuthTokenKey ContextKey = "authToken"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
