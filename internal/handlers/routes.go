package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the task API under /{version}/tasks and the health
// check at /health.
func RegisterRoutes(r *gin.Engine, apiVersion string, taskHandler *TaskHandler) {
	r.GET("/health", Health)

	tasks := r.Group("/" + apiVersion + "/tasks")
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/to-do", taskHandler.ListToDoTasks)
		tasks.GET("/be-done", taskHandler.ListDoneTasks)
		tasks.PUT("/orders", taskHandler.ReorderTasks)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PUT("/:id/be-done", taskHandler.CompleteTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}
}

// Health reports that the process is serving requests
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "active",
	})
}
