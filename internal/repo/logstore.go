package repo

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/lumenops/logsleuth/internal/logfilter"
	"github.com/lumenops/logsleuth/internal/models"
)

// CloudLoggingStore reads entries from Cloud Logging. The underlying client
// is created lazily on the first query so missing credentials surface as a
// query failure (and land in the alert ack) instead of crashing startup.
type CloudLoggingStore struct {
	projectID string
	opts      []option.ClientOption

	mu     sync.Mutex
	once   sync.Once
	client *logadmin.Client
	initEr error
}

// NewCloudLoggingStore prepares a store for the given project. No connection
// is made until the first call to Entries.
func NewCloudLoggingStore(projectID string, opts ...option.ClientOption) *CloudLoggingStore {
	return &CloudLoggingStore{projectID: projectID, opts: opts}
}

// Entries runs a filter over the window and returns up to pageSize entries,
// newest first. The window clause is appended here so callers build filters
// once and reuse them across stages.
func (s *CloudLoggingStore) Entries(ctx context.Context, filter string, window models.TimeWindow, pageSize int) ([]*logging.Entry, error) {
	client, err := s.adminClient(ctx)
	if err != nil {
		return nil, err
	}

	full := filter + "\n" + logfilter.TimeRange(window)
	it := client.Entries(ctx, logadmin.Filter(full), logadmin.NewestFirst())

	if pageSize <= 0 {
		pageSize = 100
	}
	entries := make([]*logging.Entry, 0, pageSize)
	for len(entries) < pageSize {
		entry, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *CloudLoggingStore) adminClient(ctx context.Context) (*logadmin.Client, error) {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.client, s.initEr = logadmin.NewClient(ctx, s.projectID, s.opts...)
	})
	if s.initEr != nil {
		return nil, fmt.Errorf("init logging client: %w", s.initEr)
	}
	return s.client, nil
}

// Close releases the admin client if one was created.
func (s *CloudLoggingStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
