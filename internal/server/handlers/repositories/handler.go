package repositories

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/repos"
	"github.com/repokit/repokit/internal/server/validation"
	"github.com/repokit/repokit/internal/workspace"
	"go.uber.org/zap"
)

type Handler struct {
	reposSvc  *repos.Service
	workspace *workspace.Workspace
	owner     *operations.Owner

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	reposSvc *repos.Service,
	workspace *workspace.Workspace,
	owner *operations.Owner,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		reposSvc:  reposSvc,
		workspace: workspace,
		owner:     owner,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/repositories")

	r.Use(h.errorsHandler)
	r.Get("/", h.list)

	// Reads
	r.Get("/:name/status", h.status)
	r.Get("/:name/branches", h.branches)
	r.Get("/:name/head", h.head)
	r.Get("/:name/remotes", h.remotes)
	r.Get("/:name/remotes/:remote", h.remote)
	r.Get("/:name/commits", h.commits)
	r.Get("/:name/diff", validation.DecorateWithQueryEx(h.validator, h.diff))
	r.Get("/:name/capabilities", h.capabilities)
	r.Get("/:name/operations", validation.DecorateWithQueryEx(h.validator, h.history))

	// Operations
	r.Post("/:name/init", h.init)
	r.Post("/:name/clone", validation.DecorateWithBodyEx(h.validator, h.clone))
	r.Post("/:name/commit", validation.DecorateWithBodyEx(h.validator, h.commit))
	r.Post("/:name/checkout", validation.DecorateWithBodyEx(h.validator, h.checkout))
	r.Post("/:name/push", validation.DecorateWithBodyEx(h.validator, h.push))
	r.Post("/:name/pull", validation.DecorateWithBodyEx(h.validator, h.pull))
	r.Post("/:name/fetch", validation.DecorateWithBodyEx(h.validator, h.fetch))

	// Direct mutations
	r.Post("/:name/stage", h.stage)
	r.Post("/:name/branches", validation.DecorateWithBodyEx(h.validator, h.createBranch))
	r.Delete("/:name/branches/:branch", h.deleteBranch)
	r.Post("/:name/remotes", validation.DecorateWithBodyEx(h.validator, h.addRemote))
	r.Delete("/:name/remotes/:remote", h.removeRemote)
}

//	@Summary	List repositories
//	@Tags		repositories
//	@Produce	json
//	@Success	200	{array}	workspace.Entry
//	@Router		/repositories [get]
func (h *Handler) list(c *fiber.Ctx) error {
	entries, err := h.workspace.List()
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	return c.JSON(entries)
}

//	@Summary		Get working tree status
//	@Description	Nine path categories, raw and rendered
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	StatusResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/status [get]
func (h *Handler) status(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	snapshot, err := h.reposSvc.Status(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	return c.JSON(newStatusResponse(snapshot))
}

//	@Summary		List local branches
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{array}		BranchResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/branches [get]
func (h *Handler) branches(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	branches, err := h.reposSvc.Branches(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to list branches: %w", err)
	}

	response := make([]BranchResponse, len(branches))
	for i, b := range branches {
		response[i] = BranchResponse{
			Name:    b.Name,
			Ref:     b.Ref,
			Hash:    b.Hash,
			Current: b.Current,
		}
	}

	return c.JSON(response)
}

//	@Summary		Get the checked out branch
//	@Description	Full ref name, or the commit hash when HEAD is detached
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/head [get]
func (h *Handler) head(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	ref, err := h.reposSvc.CurrentBranch(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to get current branch: %w", err)
	}

	return c.JSON(fiber.Map{"ref": ref})
}

//	@Summary		List remotes
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{array}		RemoteResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/remotes [get]
func (h *Handler) remotes(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	remotes, err := h.reposSvc.Remotes(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to list remotes: %w", err)
	}

	response := make([]RemoteResponse, 0, len(remotes))
	for name, url := range remotes {
		response = append(response, RemoteResponse{Name: name, URL: url})
	}
	sort.Slice(response, func(i, j int) bool { return response[i].Name < response[j].Name })

	return c.JSON(response)
}

//	@Summary		Get a remote
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			remote	path		string	true	"Remote name"
//	@Success		200		{object}	RemoteResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/remotes/{remote} [get]
func (h *Handler) remote(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	name := c.Params("remote")
	url, err := h.reposSvc.RemoteURL(h.owner, path, name)
	if err != nil {
		return fmt.Errorf("failed to get remote: %w", err)
	}

	return c.JSON(RemoteResponse{Name: name, URL: url})
}

//	@Summary		List commits reachable from HEAD
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{array}		CommitResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/commits [get]
func (h *Handler) commits(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	commits, err := h.reposSvc.Commits(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	response := make([]CommitResponse, len(commits))
	for i, commit := range commits {
		response[i] = CommitResponse{
			Hash:    commit.Hash,
			Author:  commit.Author,
			Email:   commit.Email,
			When:    commit.When,
			Message: commit.Message,
		}
	}

	return c.JSON(response)
}

//	@Summary		Diff two revisions
//	@Tags			repositories
//	@Param			name	path		string	true	"Repository name"
//	@Param			from	query		string	true	"Base revision"
//	@Param			to		query		string	true	"Target revision"
//	@Success		200		{string}	string
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		409		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/diff [get]
func (h *Handler) diff(c *fiber.Ctx, req *DiffQuery) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	patch, err := h.reposSvc.Diff(h.owner, path, req.From, req.To)
	if err != nil {
		return fmt.Errorf("failed to diff: %w", err)
	}

	c.Set(fiber.HeaderContentType, "text/x-diff; charset=utf-8")
	return c.SendString(patch)
}

//	@Summary		Check whether commit and checkout are allowed
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Success		200		{object}	CapabilitiesResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/capabilities [get]
func (h *Handler) capabilities(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	canCommit, err := h.reposSvc.CanCommit(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to check commit: %w", err)
	}

	canCheckout, err := h.reposSvc.CanCheckout(h.owner, path)
	if err != nil {
		return fmt.Errorf("failed to check checkout: %w", err)
	}

	return c.JSON(CapabilitiesResponse{
		CanCommit:   canCommit,
		CanCheckout: canCheckout,
	})
}

//	@Summary		List journaled operations
//	@Tags			repositories
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			limit	query		int		false	"Maximum number of records"
//	@Success		200		{array}		OperationResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/operations [get]
func (h *Handler) history(c *fiber.Ctx, req *HistoryQuery) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	records, err := h.reposSvc.History(c.Context(), path, req.Limit)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}

	response := make([]OperationResponse, len(records))
	for i := range records {
		response[i] = NewOperationResponse(&records[i])
	}

	return c.JSON(response)
}

//	@Summary	Initialize a repository
//	@Tags		repositories
//	@Produce	json
//	@Param		name	path		string	true	"Repository name"
//	@Success	202		{object}	AcceptedResponse
//	@Router		/repositories/{name}/init [post]
func (h *Handler) init(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Init(h.owner, path, nil))
}

//	@Summary		Clone a repository
//	@Description	Fails when the destination already exists
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		CloneRequest	true	"Clone request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/clone [post]
func (h *Handler) clone(c *fiber.Ctx, req *CloneRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Clone(h.owner, repos.CloneRequest{
		URL:         req.URL,
		Branch:      req.Branch,
		Directory:   path,
		Credentials: req.Credentials.toDomain(),
	}, nil))
}

//	@Summary		Commit the index
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		CommitRequest	true	"Commit request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/commit [post]
func (h *Handler) commit(c *fiber.Ctx, req *CommitRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Commit(h.owner, path, repos.CommitRequest{
		Message:  req.Message,
		StageAll: req.StageAll,
	}, nil))
}

//	@Summary		Check out an existing branch
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		CheckoutRequest	true	"Checkout request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/checkout [post]
func (h *Handler) checkout(c *fiber.Ctx, req *CheckoutRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Checkout(h.owner, path, req.Branch, nil))
}

//	@Summary		Push the current branch
//	@Description	Remote is a configured remote name or a URL
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string		true	"Repository name"
//	@Param			request	body		PushRequest	true	"Push request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/push [post]
func (h *Handler) push(c *fiber.Ctx, req *PushRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Push(h.owner, path, repos.PushRequest{
		Remote:      req.Remote,
		Credentials: req.Credentials.toDomain(),
		Force:       req.Force,
		FollowTags:  req.FollowTags,
	}, nil))
}

//	@Summary		Pull from a remote
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		TransportRequest	true	"Pull request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/pull [post]
func (h *Handler) pull(c *fiber.Ctx, req *TransportRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Pull(h.owner, path, repos.TransportRequest{
		Remote:      req.Remote,
		Credentials: req.Credentials.toDomain(),
	}, nil))
}

//	@Summary		Fetch from a remote
//	@Description	Defaults to origin
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		TransportRequest	true	"Fetch request"
//	@Success		202		{object}	AcceptedResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/fetch [post]
func (h *Handler) fetch(c *fiber.Ctx, req *TransportRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	return h.accepted(c)(h.reposSvc.Fetch(h.owner, path, repos.TransportRequest{
		Remote:      req.Remote,
		Credentials: req.Credentials.toDomain(),
	}, nil))
}

//	@Summary		Stage every change
//	@Tags			repositories
//	@Param			name	path		string	true	"Repository name"
//	@Success		204
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		409		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/stage [post]
func (h *Handler) stage(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	if stageErr := h.reposSvc.StageAll(h.owner, path); stageErr != nil {
		return fmt.Errorf("failed to stage changes: %w", stageErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

//	@Summary		Create a branch
//	@Description	With checkout set the branch is created and checked out in the background and 202 is returned
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		BranchRequest	true	"Branch request"
//	@Success		201
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		409		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/branches [post]
//
// createBranch creates the branch directly, or starts a checkout operation
// when the branch should become current.
func (h *Handler) createBranch(c *fiber.Ctx, req *BranchRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	if req.Checkout {
		return h.accepted(c)(h.reposSvc.Branch(h.owner, path, repos.CreateAndCheckout(req.Name), nil))
	}

	if _, brErr := h.reposSvc.Branch(h.owner, path, repos.CreateOnly(req.Name), nil); brErr != nil {
		return fmt.Errorf("failed to create branch: %w", brErr)
	}

	return c.SendStatus(fiber.StatusCreated)
}

//	@Summary		Delete a branch
//	@Tags			repositories
//	@Param			name	path		string	true	"Repository name"
//	@Param			branch	path		string	true	"Branch name"
//	@Success		204
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		409		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/branches/{branch} [delete]
func (h *Handler) deleteBranch(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	if delErr := h.reposSvc.DeleteBranches(h.owner, path, c.Params("branch")); delErr != nil {
		return fmt.Errorf("failed to delete branch: %w", delErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

//	@Summary		Add or update a remote
//	@Tags			repositories
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Repository name"
//	@Param			request	body		RemoteRequest	true	"Remote request"
//	@Success		201		{object}	RemoteResponse
//	@Failure		400		{object}	fiberfx.ErrorResponse
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		500		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/remotes [post]
func (h *Handler) addRemote(c *fiber.Ctx, req *RemoteRequest) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	if addErr := h.reposSvc.AddRemote(h.owner, path, req.Name, req.URL); addErr != nil {
		return fmt.Errorf("failed to add remote: %w", addErr)
	}

	return c.Status(fiber.StatusCreated).JSON(RemoteResponse(*req))
}

//	@Summary		Remove a remote
//	@Tags			repositories
//	@Param			name	path		string	true	"Repository name"
//	@Param			remote	path		string	true	"Remote name"
//	@Success		204
//	@Failure		404		{object}	fiberfx.ErrorResponse
//	@Failure		500		{object}	fiberfx.ErrorResponse
//	@Router			/repositories/{name}/remotes/{remote} [delete]
func (h *Handler) removeRemote(c *fiber.Ctx) error {
	path, err := h.path(c)
	if err != nil {
		return err
	}

	if rmErr := h.reposSvc.RemoveRemote(h.owner, path, c.Params("remote")); rmErr != nil {
		return fmt.Errorf("failed to remove remote: %w", rmErr)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) path(c *fiber.Ctx) (string, error) {
	path, err := h.workspace.Resolve(c.Params("name"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return path, nil
}

// accepted turns a submission into a 202 response.
func (h *Handler) accepted(c *fiber.Ctx) func(uuid.UUID, error) error {
	return func(id uuid.UUID, err error) error {
		if err != nil {
			return fmt.Errorf("failed to start operation: %w", err)
		}

		return c.Status(fiber.StatusAccepted).JSON(AcceptedResponse{OperationID: id})
	}
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return err
	}

	switch repos.KindOf(err) {
	case repos.KindValidation:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case repos.KindRepositoryUnavailable:
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case repos.KindConfigPersist:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	case repos.KindEngine:
		if errors.Is(err, operations.ErrRunnerClosed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case repos.KindNone:
	}

	return err //nolint:wrapcheck //already wrapped
}
