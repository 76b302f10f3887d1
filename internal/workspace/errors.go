package workspace

import (
	"fmt"

	"github.com/repokit/repokit/internal/git"
)

var ErrInvalidName = fmt.Errorf("%w: invalid repository name", git.ErrValidation)
