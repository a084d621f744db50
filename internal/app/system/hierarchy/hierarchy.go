// Package hierarchy resolves a leaf entity up to its workspace by walking
// parent references. Every access decision needs the owning workspace, so
// every level of the walk reports its own entity name on failure: a dangling
// reference surfaces as "group tidak ditemukan", not a generic 404.
package hierarchy

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	commentstore "github.com/wirastama/manpro/internal/app/store/comments"
	groupstore "github.com/wirastama/manpro/internal/app/store/groups"
	projectstore "github.com/wirastama/manpro/internal/app/store/projects"
	subtaskstore "github.com/wirastama/manpro/internal/app/store/subtasks"
	taskstore "github.com/wirastama/manpro/internal/app/store/tasks"
	workspacestore "github.com/wirastama/manpro/internal/app/store/workspaces"
	"github.com/wirastama/manpro/internal/domain/models"
)

// Chain is a fully resolved containment path. Fields below the entry level
// are nil: FromTask leaves Subtask nil, FromGroup leaves Task and Subtask nil.
type Chain struct {
	Workspace *models.Workspace
	Project   *models.Project
	Group     *models.Group
	Task      *models.Task
	Subtask   *models.Subtask
}

type Resolver struct {
	workspaces *workspacestore.Store
	projects   *projectstore.Store
	groups     *groupstore.Store
	tasks      *taskstore.Store
	subtasks   *subtaskstore.Store
	comments   *commentstore.Store
}

func New(
	workspaces *workspacestore.Store,
	projects *projectstore.Store,
	groups *groupstore.Store,
	tasks *taskstore.Store,
	subtasks *subtaskstore.Store,
	comments *commentstore.Store,
) *Resolver {
	return &Resolver{
		workspaces: workspaces,
		projects:   projects,
		groups:     groups,
		tasks:      tasks,
		subtasks:   subtasks,
		comments:   comments,
	}
}

// FromWorkspace anchors a chain at the workspace itself.
func (r *Resolver) FromWorkspace(ctx context.Context, id primitive.ObjectID) (*Chain, error) {
	ws, err := r.workspaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Chain{Workspace: ws}, nil
}

// FromProject resolves project → workspace.
func (r *Resolver) FromProject(ctx context.Context, id primitive.ObjectID) (*Chain, error) {
	p, err := r.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ws, err := r.workspaces.GetByID(ctx, p.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return &Chain{Workspace: ws, Project: p}, nil
}

// FromGroup resolves group → project → workspace.
func (r *Resolver) FromGroup(ctx context.Context, id primitive.ObjectID) (*Chain, error) {
	g, err := r.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chain, err := r.FromProject(ctx, g.ProjectID)
	if err != nil {
		return nil, err
	}
	chain.Group = g
	return chain, nil
}

// FromTask resolves task → group → project → workspace.
func (r *Resolver) FromTask(ctx context.Context, id primitive.ObjectID) (*Chain, error) {
	t, err := r.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chain, err := r.FromGroup(ctx, t.GroupID)
	if err != nil {
		return nil, err
	}
	chain.Task = t
	return chain, nil
}

// FromSubtask resolves the full chain from the leaf.
func (r *Resolver) FromSubtask(ctx context.Context, id primitive.ObjectID) (*Chain, error) {
	st, err := r.subtasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chain, err := r.FromTask(ctx, st.TaskID)
	if err != nil {
		return nil, err
	}
	chain.Subtask = st
	return chain, nil
}

// FromComment resolves a comment's task chain.
func (r *Resolver) FromComment(ctx context.Context, id primitive.ObjectID) (*Chain, *models.Comment, error) {
	cm, err := r.comments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	chain, err := r.FromTask(ctx, cm.TaskID)
	if err != nil {
		return nil, nil, err
	}
	return chain, cm, nil
}
