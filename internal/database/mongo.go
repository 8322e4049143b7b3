package database

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo connects and pings, retrying with exponential backoff for up
// to maxWait while the server comes up.
func ConnectMongo(ctx context.Context, uri, dbName string, maxWait time.Duration, logger *zap.SugaredLogger) (*mongo.Database, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Errorf("MongoDB connection failed: %v", err)
		return nil, nil, err
	}

	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pctx, nil)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warnf("MongoDB ping failed, retrying in %v: %v", wait, err)
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(retryPolicy(maxWait), ctx), notify); err != nil {
		logger.Errorf("MongoDB ping failed: %v", err)
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	logger.Info("MongoDB connected successfully")
	return client.Database(dbName), client, nil
}

func retryPolicy(maxWait time.Duration) backoff.BackOff {
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxWait
	return b
}
