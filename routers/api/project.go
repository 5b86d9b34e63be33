package api

import (
	"database/sql"
	"errors"
	"net/http"

	"PromptToVideo-server/models"

	"github.com/gin-gonic/gin"
)

// GetProject 项目详情：项目行 + 按编号排列的分镜记录
func GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := models.GetProjectByID(projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	scenes, err := models.GetScenesByProjectIDGorm(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": project,
		"scenes":  scenes,
	})
}
