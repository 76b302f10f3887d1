package operations

type Config struct {
	// Records kept per repository path, zero keeps everything
	HistoryLimit int
}
