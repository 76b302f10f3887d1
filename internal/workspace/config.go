package workspace

type Config struct {
	// Directory holding one subdirectory per repository
	Root string
}
