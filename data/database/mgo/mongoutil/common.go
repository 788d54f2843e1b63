package mongoutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
)

func buildMongoURI(config *Config, authSource string) string {
	credentials := ""
	if config.Username != "" && config.Password != "" {
		credentials = fmt.Sprintf("%s:%s@", config.Username, config.Password)
	}

	return fmt.Sprintf(
		"mongodb://%s%s/%s?authSource=%s&maxPoolSize=%d",
		credentials,
		strings.Join(config.Address, ","),
		config.Database,
		authSource,
		config.MaxPoolSize,
	)
}

// shouldRetry determines whether an error should trigger a retry.
// Auth failures (13 Unauthorized, 18 AuthenticationFailed) are permanent.
func shouldRetry(ctx context.Context, err error) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.Code != 13 && cmdErr.Code != 18
		}
		return true
	}
}

// IsDuplicateKey reports an E11000 unique index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
