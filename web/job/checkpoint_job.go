// Package job holds the cron jobs run by the web server.
package job

import (
	"github.com/visioweb/askboard/database"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/common"
)

// CheckpointJob folds the SQLite write-ahead log back into the database file so the WAL
// does not grow without bound between restarts.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

// Run implements cron.Job.
func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")
	if !database.IsSQLite() {
		return
	}
	if err := database.Checkpoint(); err != nil {
		logger.Warning("checkpoint job err:", err)
		return
	}
	logger.Debug("database checkpoint done")
}
