package metric

import (
	"context"
	"errors"
	"time"

	"dayplan/src-server/kv"
	"dayplan/src-server/utils"
)

const probeKey = "__metric_probe__"

func storageEmptyRead(as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.Storage.Get(context.Background(), probeKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return 0, err
	}
	return time.Since(start), nil
}

func pendingTriggers(as *utils.AppState) (int, error) {
	pending, err := as.Local.Pending(context.Background())
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}
