package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/maylhq/mayl/pkg/db"
	"github.com/maylhq/mayl/pkg/metrics"
)

// ArchiveCuller is a worker used to periodically trim the email archive down
// to a configured row cap, deleting oldest rows first. It is the only writer
// that deletes from the archive based on volume.
type ArchiveCuller struct {
	DbConn  db.DatabaseClient
	Period  time.Duration
	MaxRows int64
}

// Run periodically executes a cull against the given DB connection.
func (c *ArchiveCuller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.Period)

	glog.Info("Starting archive culler...")
	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return fmt.Errorf("stopped archive culler: %w", context.Canceled)
		case <-ticker.C:
			numDeleted, err := c.DbConn.CullArchive(c.MaxRows)
			if err != nil {
				glog.Errorf("failed to cull email archive: %v", err)
				continue
			}
			if numDeleted > 0 {
				metrics.DefaultInstance().AddCulledArchive(numDeleted)
				glog.Infof("deleted %d oldest rows from email archive", numDeleted)
			}
			if size, err := c.DbConn.CountArchivedEmails(); err == nil {
				metrics.DefaultInstance().SetArchiveSize(size)
			}
		}
	}
}
