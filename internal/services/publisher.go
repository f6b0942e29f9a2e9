package services

import "context"

// Publisher announces dataset changes to interested consumers. A nil
// Publisher disables announcements; mutations never fail because the broker
// is down.
type Publisher interface {
	PublishDatasetChange(ctx context.Context, key string, version uint64) error
}
