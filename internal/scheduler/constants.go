package scheduler

const (
	workerName = "collection-scheduler"

	statusOK     = "ok"
	statusFailed = "failed"

	logKeySourceID   = "source_id"
	logKeyScenarioID = "scenario_id"
	logKeyPlatform   = "platform"

	errFmtAcquireLock = "acquire lock for source %s: %w"
	errFmtWindow      = "collect window for source %s: %w"
	errFmtCollect     = "collect source %s: %w"
	errFmtAnalyze     = "analyze source %s: %w"
	errFmtNoCollector = "no collector registered for platform %q"
)
