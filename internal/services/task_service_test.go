package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abcdjack1/todolist/internal/database"
	apperrors "github.com/abcdjack1/todolist/internal/errors"
	"github.com/abcdjack1/todolist/internal/models"
	"github.com/abcdjack1/todolist/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context
}

func (suite *TaskServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = database.OpenSQLite(":memory:", nil)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.AutoMigrate(&models.Task{}))

	suite.service = NewTaskService(repository.NewTaskRepository(suite.db))
	suite.ctx = context.Background()
}

func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskServiceTestSuite) save(message string) *models.Task {
	task, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: message})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) TestSaveAppendsOrders() {
	a := suite.save("a")
	b := suite.save("b")
	c := suite.save("c")

	suite.Equal(0, a.Order)
	suite.Equal(1, b.Order)
	suite.Equal(2, c.Order)
	suite.Equal(models.TaskStatusNotDone, a.Completed)
	suite.Equal(models.PriorityMedium, a.Priority)
}

func (suite *TaskServiceTestSuite) TestSaveAfterReorderUsesMax() {
	a := suite.save("a")
	_, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{{ID: a.ID, Order: 41}})
	suite.Require().NoError(err)

	b := suite.save("b")
	suite.Equal(42, b.Order)
}

func (suite *TaskServiceTestSuite) TestSaveIgnoresDoneTasksForOrder() {
	a := suite.save("a")
	_, err := suite.service.CompleteByID(suite.ctx, a.ID)
	suite.Require().NoError(err)

	b := suite.save("b")
	suite.Equal(0, b.Order)
}

func (suite *TaskServiceTestSuite) TestSaveValidation() {
	_, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: "   "})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Save(suite.ctx, CreateTaskInput{Message: "x", Priority: "Urgent"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TaskServiceTestSuite) TestSaveWithReminder() {
	at := time.Date(2031, 3, 4, 5, 6, 7, 0, time.UTC)
	task, err := suite.service.Save(suite.ctx, CreateTaskInput{
		Message:      "dentist",
		Priority:     models.PriorityHigh,
		ReminderTime: &at,
	})
	suite.Require().NoError(err)

	found, err := suite.service.GetTask(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.PriorityHigh, found.Priority)
	suite.Require().NotNil(found.ReminderTime)
	suite.True(found.ReminderTime.Equal(at))
}

func (suite *TaskServiceTestSuite) TestUpdateWithoutReminderClearsIt() {
	at := time.Date(2031, 3, 4, 5, 6, 7, 0, time.UTC)
	task, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: "a", ReminderTime: &at})
	suite.Require().NoError(err)

	message := "a2"
	updated, err := suite.service.Update(suite.ctx, task.ID, UpdateTaskInput{
		Message:  &message,
		Reminder: models.ReminderFromOptional(nil),
	})
	suite.Require().NoError(err)
	suite.Equal("a2", updated.Message)
	suite.Nil(updated.ReminderTime)
}

func (suite *TaskServiceTestSuite) TestUpdateKeepReminder() {
	at := time.Date(2031, 3, 4, 5, 6, 7, 0, time.UTC)
	task, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: "a", ReminderTime: &at})
	suite.Require().NoError(err)

	priority := models.PriorityLow
	updated, err := suite.service.Update(suite.ctx, task.ID, UpdateTaskInput{Priority: &priority})
	suite.Require().NoError(err)
	suite.Equal(models.PriorityLow, updated.Priority)
	suite.Require().NotNil(updated.ReminderTime)
}

func (suite *TaskServiceTestSuite) TestUpdateRejectsReopen() {
	task := suite.save("a")
	_, err := suite.service.CompleteByID(suite.ctx, task.ID)
	suite.Require().NoError(err)

	status := models.TaskStatusNotDone
	_, err = suite.service.Update(suite.ctx, task.ID, UpdateTaskInput{Completed: &status})
	suite.ErrorIs(err, apperrors.ErrValidation)

	found, err := suite.service.GetTask(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.True(found.IsDone())
}

func (suite *TaskServiceTestSuite) TestUpdateCanComplete() {
	task := suite.save("a")

	status := models.TaskStatusDone
	updated, err := suite.service.Update(suite.ctx, task.ID, UpdateTaskInput{Completed: &status})
	suite.Require().NoError(err)
	suite.True(updated.IsDone())
}

func (suite *TaskServiceTestSuite) TestUpdateErrors() {
	message := "x"
	_, err := suite.service.Update(suite.ctx, "bad", UpdateTaskInput{Message: &message})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Update(suite.ctx, uuid.NewString(), UpdateTaskInput{Message: &message})
	suite.ErrorIs(err, apperrors.ErrDataNotFound)

	empty := " "
	task := suite.save("a")
	_, err = suite.service.Update(suite.ctx, task.ID, UpdateTaskInput{Message: &empty})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TaskServiceTestSuite) TestCompleteKeepsFields() {
	suite.save("first")
	task, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: "second", Priority: models.PriorityHigh})
	suite.Require().NoError(err)

	done, err := suite.service.CompleteByID(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, done.Completed)
	suite.Equal(1, done.Order)
	suite.Equal("second", done.Message)
	suite.Equal(models.PriorityHigh, done.Priority)

	notDone, err := suite.service.ListNotDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Len(notDone, 1)

	doneList, err := suite.service.ListDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(doneList, 1)
	suite.Equal(task.ID, doneList[0].ID)
}

func (suite *TaskServiceTestSuite) TestListDoneNewestFirst() {
	a := suite.save("a")
	b := suite.save("b")

	_, err := suite.service.CompleteByID(suite.ctx, b.ID)
	suite.Require().NoError(err)
	time.Sleep(5 * time.Millisecond)
	_, err = suite.service.CompleteByID(suite.ctx, a.ID)
	suite.Require().NoError(err)

	done, err := suite.service.ListDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(done, 2)
	suite.Equal(a.ID, done[0].ID)
	suite.Equal(b.ID, done[1].ID)
}

func (suite *TaskServiceTestSuite) TestDeleteLeavesGaps() {
	a := suite.save("a")
	b := suite.save("b")
	c := suite.save("c")

	deleted, err := suite.service.DeleteByID(suite.ctx, b.ID)
	suite.Require().NoError(err)
	suite.Equal(b.ID, deleted.ID)

	tasks, err := suite.service.ListNotDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)
	suite.Equal(a.ID, tasks[0].ID)
	suite.Equal(c.ID, tasks[1].ID)
	suite.Equal(2, tasks[1].Order)

	_, err = suite.service.DeleteByID(suite.ctx, b.ID)
	suite.ErrorIs(err, apperrors.ErrDataNotFound)
}

func (suite *TaskServiceTestSuite) TestReorder() {
	a := suite.save("a")
	b := suite.save("b")

	res, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{
		{ID: a.ID, Order: 10},
		{ID: b.ID, Order: 100},
	})
	suite.Require().NoError(err)
	suite.Equal(int64(2), res.Matched)

	tasks, err := suite.service.ListNotDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(10, tasks[0].Order)
	suite.Equal(100, tasks[1].Order)
}

func (suite *TaskServiceTestSuite) TestReorderSwap() {
	a := suite.save("a")
	b := suite.save("b")

	_, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{
		{ID: a.ID, Order: 1},
		{ID: b.ID, Order: 0},
	})
	suite.Require().NoError(err)

	tasks, err := suite.service.ListNotDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(b.ID, tasks[0].ID)
	suite.Equal(a.ID, tasks[1].ID)
}

func (suite *TaskServiceTestSuite) TestReorderPartialMatch() {
	a := suite.save("a")

	res, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{
		{ID: a.ID, Order: 7},
		{ID: uuid.NewString(), Order: 8},
	})
	suite.ErrorIs(err, apperrors.ErrDataNotFound)
	suite.Equal("Just matched 1 data.", err.Error())
	suite.Equal(int64(1), res.Matched)

	found, err := suite.service.GetTask(suite.ctx, a.ID)
	suite.Require().NoError(err)
	suite.Equal(7, found.Order)
}

func (suite *TaskServiceTestSuite) TestReorderValidation() {
	_, err := suite.service.Reorder(suite.ctx, nil)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Reorder(suite.ctx, []repository.OrderPair{{ID: "abc", Order: 1}})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal("Task ID abc is not valid.", err.Error())
}

func (suite *TaskServiceTestSuite) TestReorderRejectsDuplicateOrder() {
	a := suite.save("a")
	b := suite.save("b")

	_, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{
		{ID: a.ID, Order: 5},
		{ID: b.ID, Order: 5},
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal("Order 5 is assigned more than once.", err.Error())

	tasks, err := suite.service.ListNotDone(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(0, tasks[0].Order)
	suite.Equal(1, tasks[1].Order)
}

func (suite *TaskServiceTestSuite) TestReorderRejectsDuplicateID() {
	a := suite.save("a")

	_, err := suite.service.Reorder(suite.ctx, []repository.OrderPair{
		{ID: a.ID, Order: 1},
		{ID: a.ID, Order: 2},
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Equal("Task ID "+a.ID+" is listed more than once.", err.Error())

	found, err := suite.service.GetTask(suite.ctx, a.ID)
	suite.Require().NoError(err)
	suite.Equal(0, found.Order)
}

func (suite *TaskServiceTestSuite) TestSaveConcurrentOrdersAreUnique() {
	const n = 20
	orders := make(chan int, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, err := suite.service.Save(suite.ctx, CreateTaskInput{Message: fmt.Sprintf("task %d", i)})
			if err != nil {
				errs <- err
				return
			}
			orders <- task.Order
		}(i)
	}
	wg.Wait()
	close(orders)
	close(errs)

	for err := range errs {
		suite.Require().NoError(err)
	}

	got := make([]int, 0, n)
	for order := range orders {
		got = append(got, order)
	}
	sort.Ints(got)

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	suite.Equal(want, got)
}

func (suite *TaskServiceTestSuite) TestGetTaskErrors() {
	_, err := suite.service.GetTask(suite.ctx, "abc")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.GetTask(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrDataNotFound)
}

func (suite *TaskServiceTestSuite) TestCompleteErrors() {
	_, err := suite.service.CompleteByID(suite.ctx, "abc")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CompleteByID(suite.ctx, uuid.NewString())
	suite.ErrorIs(err, apperrors.ErrDataNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

// recordingRepository counts storage calls.
type recordingRepository struct {
	repository.TaskRepository
	calls int
}

func (r *recordingRepository) ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation("Task ID %s is not valid.", id)
	}
	return nil
}

func (r *recordingRepository) BulkSetOrder(context.Context, []repository.OrderPair) (repository.BulkResult, error) {
	r.calls++
	return repository.BulkResult{}, nil
}

func (r *recordingRepository) FindByID(context.Context, string) (*models.Task, error) {
	r.calls++
	return nil, nil
}

func (r *recordingRepository) DeleteByID(context.Context, string) (*models.Task, error) {
	r.calls++
	return nil, nil
}

func TestInvalidIDNeverReachesStore(t *testing.T) {
	repo := &recordingRepository{}
	service := NewTaskService(repo)
	ctx := context.Background()

	_, err := service.Reorder(ctx, []repository.OrderPair{
		{ID: uuid.NewString(), Order: 1},
		{ID: "nope", Order: 2},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	id := uuid.NewString()
	_, err = service.Reorder(ctx, []repository.OrderPair{{ID: id, Order: 1}, {ID: id, Order: 2}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Reorder(ctx, []repository.OrderPair{{ID: uuid.NewString(), Order: 3}, {ID: uuid.NewString(), Order: 3}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.DeleteByID(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Zero(t, repo.calls)
}

func TestReorderDatabaseErrorPassesThrough(t *testing.T) {
	service := NewTaskService(&failingRepository{})

	_, err := service.Reorder(context.Background(), []repository.OrderPair{{ID: uuid.NewString(), Order: 1}})
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}

type failingRepository struct {
	recordingRepository
}

func (r *failingRepository) BulkSetOrder(context.Context, []repository.OrderPair) (repository.BulkResult, error) {
	return repository.BulkResult{}, apperrors.Database(nil, "connection refused")
}
