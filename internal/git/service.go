package git

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"go.uber.org/zap"
)

// Service resolves repository paths to short-lived handles.
// It keeps no repository state between calls.
type Service struct {
	config Config

	logger *zap.Logger
}

// NewService creates a new git Service.
func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// Open opens the repository at path.
func (s *Service) Open(path string) (*Handle, error) {
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}
	if err != nil {
		s.logger.Error("failed to open repository", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}

	return newHandle(path, repo, s.config), nil
}

// Init creates a repository at path. Initializing an existing repository opens it.
func (s *Service) Init(path string) (*Handle, error) {
	s.logger.Info("initializing repository", zap.String("path", path))

	repo, err := git.PlainInit(path, false)
	if errors.Is(err, git.ErrTargetDirNotEmpty) {
		s.logger.Info("repository already exists, reinitialized", zap.String("path", path))
		return s.Open(path)
	}
	if err != nil {
		s.logger.Error("failed to initialize repository", zap.String("path", path), zap.Error(err))
		return nil, engineError("init", err)
	}

	return newHandle(path, repo, s.config), nil
}

// Clone clones a repository into a directory that must not exist yet.
func (s *Service) Clone(ctx context.Context, req CloneRequest) (*Handle, error) {
	s.logger.Info("cloning repository",
		zap.String("url", req.URL),
		zap.String("directory", req.Directory),
		zap.String("branch", req.Branch))

	if req.URL == "" {
		return nil, fmt.Errorf("%w: empty remote url", ErrValidation)
	}

	// Check if directory already exists
	if _, statErr := os.Stat(req.Directory); statErr == nil {
		return nil, fmt.Errorf("%w: %s", ErrDestinationExists, req.Directory)
	} else if !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("%w: %w", ErrRepositoryUnavailable, statErr)
	}

	cloneOptions := &git.CloneOptions{
		URL:      req.URL,
		Auth:     s.config.authFor(req.URL, req.Credentials),
		Progress: req.Progress,
	}

	if req.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(req.Branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, req.Directory, cloneOptions)
	if err != nil {
		s.logger.Error("failed to clone repository", zap.Error(err))
		return nil, engineError("clone", err)
	}

	s.logger.Info("repository cloned successfully",
		zap.String("url", req.URL),
		zap.String("directory", req.Directory))

	return newHandle(req.Directory, repo, s.config), nil
}
