package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/task"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/testutil"
)

var (
	manager = domain.Actor{UID: "M1", Role: domain.RoleSalesManager}
	sales   = domain.Actor{UID: "S1", Role: domain.RoleSalesTeam}
	writer  = domain.Actor{UID: "W1", Role: domain.RoleWritingTeam}
	writer2 = domain.Actor{UID: "W2", Role: domain.RoleWritingTeam}
)

type fixture struct {
	db       *gorm.DB
	svc      *task.Service
	projects *project.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	for _, a := range []domain.Actor{manager, sales, writer, writer2} {
		testutil.CreateUser(t, db, a.UID, a.Role)
	}
	projects := project.NewRepository(db)
	svc := task.NewService(db, task.NewRepository(db), projects, user.NewRepository(db), nil)
	return fixture{db: db, svc: svc, projects: projects}
}

func seedProject(t *testing.T, f fixture, status lifecycle.Status) *project.Project {
	t.Helper()
	p := &project.Project{UserID: domain.UnregisteredClient("c@x.com"), Title: "Dissertation", Status: status}
	if status != lifecycle.StatusPending {
		advance := int64(0)
		project.Finalization{DealAmount: 30000, AdvanceReceived: &advance, FinalDeadline: time.Now().Add(720 * time.Hour)}.
			Apply(p, "S1", time.Now().UTC())
	}
	require.NoError(t, f.projects.Create(context.Background(), p))
	return p
}

func request(writerID string) *task.CreateTaskRequest {
	return &task.CreateTaskRequest{WriterID: writerID, Description: "Draft chapters 1-3"}
}

func TestCreateTask_MovesProjectInProgress(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := seedProject(t, f, lifecycle.StatusApproved)

	created, err := f.svc.CreateTask(ctx, manager, p.ID, request("W1"))
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPending, created.Status)
	assert.True(t, created.IsAssignedTo("W1"))

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInProgress, got.Status)
	require.NotNil(t, got.AssignedWriterID)
	assert.Equal(t, "W1", *got.AssignedWriterID)
}

func TestCreateTask_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pending := seedProject(t, f, lifecycle.StatusPending)
	_, err := f.svc.CreateTask(ctx, manager, pending.ID, request("W1"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	approved := seedProject(t, f, lifecycle.StatusApproved)
	_, err = f.svc.CreateTask(ctx, sales, approved.ID, request("W1"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.CreateTask(ctx, manager, approved.ID, request("S1"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, task.ErrNotWriter)

	_, err = f.svc.CreateTask(ctx, manager, "missing", request("W1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.projects.GetByID(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, got.Status, "failed dispatch must not move the project")
}

func TestCreateTask_OneLiveTaskPerProject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := seedProject(t, f, lifecycle.StatusApproved)

	_, err := f.svc.CreateTask(ctx, manager, p.ID, request("W1"))
	require.NoError(t, err)

	_, err = f.svc.CreateTask(ctx, manager, p.ID, request("W2"))
	assert.ErrorIs(t, err, domain.ErrTaskAlreadyActive)
}

func TestLiveTaskIndex(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	repo := task.NewRepository(f.db)

	require.NoError(t, repo.Create(ctx, &task.Task{ProjectID: "p1", Status: lifecycle.StatusPending}))
	err := repo.Create(ctx, &task.Task{ProjectID: "p1", Status: lifecycle.StatusInProgress})
	assert.ErrorIs(t, err, domain.ErrTaskAlreadyActive)

	require.NoError(t, repo.Create(ctx, &task.Task{ProjectID: "p1", Status: lifecycle.StatusCompleted}))
}

func TestStartAndComplete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := seedProject(t, f, lifecycle.StatusApproved)

	created, err := f.svc.CreateTask(ctx, manager, p.ID, request("W1"))
	require.NoError(t, err)

	_, err = f.svc.StartTask(ctx, writer2, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	started, err := f.svc.StartTask(ctx, writer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	_, err = f.svc.StartTask(ctx, writer, created.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.CompleteTask(ctx, writer2, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.svc.CompleteTask(ctx, manager, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	done, err := f.svc.CompleteTask(ctx, writer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCompleted, got.Status)

	again, err := f.svc.CompleteTask(ctx, writer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCompleted, again.Status)
}

func TestCompleteTask_FromPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := seedProject(t, f, lifecycle.StatusApproved)

	created, err := f.svc.CreateTask(ctx, manager, p.ID, request("W1"))
	require.NoError(t, err)

	done, err := f.svc.CompleteTask(ctx, writer, created.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCompleted, done.Status)

	_, err = f.svc.CreateTask(ctx, manager, p.ID, request("W2"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "completed project cannot be dispatched again")
}

func TestListings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := seedProject(t, f, lifecycle.StatusApproved)

	created, err := f.svc.CreateTask(ctx, manager, p.ID, request("W1"))
	require.NoError(t, err)

	mine, err := f.svc.ListForWriter(ctx, writer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	others, err := f.svc.ListForWriter(ctx, writer2)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = f.svc.ListForWriter(ctx, manager)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	history, err := f.svc.ListForProject(ctx, manager, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.svc.Get(ctx, writer2, created.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
