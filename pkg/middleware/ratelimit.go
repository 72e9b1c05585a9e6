package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	libredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/talentgrid/gateway/pkg/configuration"
	"github.com/talentgrid/gateway/pkg/constants"
	"github.com/talentgrid/gateway/pkg/httpapi"
)

type RateLimitConfig struct {
	RequestsPerPeriod int
	// Period defaults to one second, making RequestsPerPeriod an RPS figure.
	Period  time.Duration
	Store   limiter.Store
	KeyFunc func(r *http.Request) string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := libredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := libredis.NewClient(opts)
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "gateway:ratelimit",
	})
}

// RateLimit enforces a global request budget keyed by client IP. Store
// failures fail open so the limiter cannot take the gateway down with it.
func RateLimit(config RateLimitConfig) mux.MiddlewareFunc {
	period := config.Period
	if period == 0 {
		period = time.Second
	}
	instance := limiter.New(config.Store, limiter.Rate{
		Period: period,
		Limit:  int64(config.RequestsPerPeriod),
	})

	keyFunc := config.KeyFunc
	if keyFunc == nil {
		conf := configuration.Use()
		keyFunc = func(r *http.Request) string {
			return getRealIP(r, conf)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiterCtx, err := instance.Get(r.Context(), keyFunc(r))
			if err != nil {
				if entry, ok := r.Context().Value(constants.LoggerKey).(*logrus.Entry); ok {
					entry.WithError(err).Warn("rate limiter store unavailable, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiterCtx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limiterCtx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(limiterCtx.Reset, 10))

			if limiterCtx.Reached {
				_ = httpapi.WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
