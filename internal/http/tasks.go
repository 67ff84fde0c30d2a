package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskorbit/taskorbit/internal/auth"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/tasks"
	"github.com/taskorbit/taskorbit/internal/entities"
)

// TasksController exposes task CRUD over JSON, scoped to the session user.
// Every request runs inside a single unit of work, so multi-step handlers
// commit or roll back as one and storage failures reach the response
// helpers classified.
type TasksController struct {
	db *database.Database
}

func NewTasksController(db *database.Database) *TasksController {
	return &TasksController{db: db}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
}

// List returns the user's tasks, newest first.
// GET /api/tasks?status=all|active|completed
func (tc *TasksController) List(c *gin.Context) {
	filter, ok := parseStatusFilter(c)
	if !ok {
		return
	}

	var items []entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.list", func(tx *gorm.DB) error {
		var err error
		items, err = tasks.NewRepository(tx).ListForOwner(auth.GetUserID(c), filter)
		return err
	})
	if err != nil {
		respondStorageError(c, err, "tasks", "list tasks")
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create adds a new task for the current user. The insert and the optional
// due date land in the same transaction; a failed request persists nothing.
// POST /api/tasks
func (tc *TasksController) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}

	ownerID := auth.GetUserID(c)
	var task *entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.create", func(tx *gorm.DB) error {
		repo := tasks.NewRepository(tx)
		created, err := repo.Create(ownerID, req.Title, req.Description)
		if err != nil {
			return err
		}
		if req.DueAt != nil {
			created, err = repo.Apply(created.ID, ownerID, tasks.Update{DueAt: req.DueAt})
			if err != nil {
				return err
			}
		}
		task = created
		return nil
	})
	if err != nil {
		respondStorageError(c, err, "task", "create task")
		return
	}

	respondCreated(c, task)
}

// Get returns a single task.
// GET /api/tasks/:id
func (tc *TasksController) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var task *entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.get", func(tx *gorm.DB) error {
		var err error
		task, err = tasks.NewRepository(tx).Get(id, auth.GetUserID(c))
		return err
	})
	if err != nil {
		respondStorageError(c, err, "task", "get task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Update applies a partial edit to a task.
// PATCH /api/tasks/:id
func (tc *TasksController) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed task update")
		return
	}
	if req.Title == nil && req.Description == nil && req.DueAt == nil {
		respondBadRequest(c, "no fields to update")
		return
	}

	var task *entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.update", func(tx *gorm.DB) error {
		var err error
		task, err = tasks.NewRepository(tx).Apply(id, auth.GetUserID(c), tasks.Update{
			Title:       req.Title,
			Description: req.Description,
			DueAt:       req.DueAt,
		})
		return err
	})
	if err != nil {
		respondStorageError(c, err, "task", "update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Toggle flips a task between active and completed.
// POST /api/tasks/:id/toggle
func (tc *TasksController) Toggle(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var task *entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.toggle", func(tx *gorm.DB) error {
		var err error
		task, err = tasks.NewRepository(tx).Toggle(id, auth.GetUserID(c))
		return err
	})
	if err != nil {
		respondStorageError(c, err, "task", "toggle task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete removes a task. Deleting an already absent task succeeds.
// DELETE /api/tasks/:id
func (tc *TasksController) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.delete", func(tx *gorm.DB) error {
		return tasks.NewRepository(tx).Delete(id, auth.GetUserID(c))
	})
	if err != nil {
		respondStorageError(c, err, "task", "delete task")
		return
	}
	respondSuccess(c, "task deleted")
}

// Search finds tasks matching the query in title or description.
// GET /api/tasks/search?q=...
func (tc *TasksController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}

	var items []entities.Task
	err := tc.db.WithUnitOfWork(c.Request.Context(), "tasks.search", func(tx *gorm.DB) error {
		var err error
		items, err = tasks.NewRepository(tx).Search(auth.GetUserID(c), query)
		return err
	})
	if err != nil {
		respondStorageError(c, err, "tasks", "search tasks")
		return
	}
	c.JSON(http.StatusOK, items)
}

// RegisterRoutes registers task routes on the engine.
func (tc *TasksController) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/tasks", tc.List)
	r.POST("/api/tasks", tc.Create)
	r.GET("/api/tasks/search", tc.Search)
	r.GET("/api/tasks/:id", tc.Get)
	r.PATCH("/api/tasks/:id", tc.Update)
	r.POST("/api/tasks/:id/toggle", tc.Toggle)
	r.DELETE("/api/tasks/:id", tc.Delete)
}

func parseStatusFilter(c *gin.Context) (tasks.StatusFilter, bool) {
	raw := c.DefaultQuery("status", string(tasks.StatusAll))
	switch filter := tasks.StatusFilter(raw); filter {
	case tasks.StatusAll, tasks.StatusActive, tasks.StatusCompleted:
		return filter, true
	default:
		respondBadRequest(c, "status must be one of all, active, completed")
		return tasks.StatusAll, false
	}
}
