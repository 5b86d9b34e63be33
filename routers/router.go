package routers

import (
	"PromptToVideo-server/config"
	"PromptToVideo-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Static("/static", config.AppConfig.Paths.Static)
	r.StaticFile("/", config.AppConfig.Paths.Static+"/index.html")

	// 同步生成（阻塞到流水线结束）与产物下载，行为与入参对外保持稳定
	r.POST("/generate-video", api.GenerateVideo)
	r.GET("/download/:project_id/:filename", api.DownloadFile)

	v1 := r.Group("/v1/api")
	{
		v1.POST("/generate-video", api.GenerateVideoAsync)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.GET("/tasks/:task_id", api.GetTaskStatus)
	}
	r.GET("/tasks/:task_id/wss", api.TaskProgressWebSocket)
	return r
}
