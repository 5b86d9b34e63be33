package main

import (
	"fmt"
	"log"
	"os"

	"PromptToVideo-server/config"
	"PromptToVideo-server/models"
	"PromptToVideo-server/routers"
	"PromptToVideo-server/service"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	// 启动时一次性创建各根目录；每次运行的子目录由流水线自己管理
	for _, dir := range []string{
		config.AppConfig.Paths.Uploads,
		config.AppConfig.Paths.Output,
		config.AppConfig.Paths.Workspace,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("创建目录 %s 失败: %v", dir, err)
		}
	}

	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()

	processor := service.NewProcessor(models.GormDB)
	processor.StartProcessor(5)

	r := routers.InitRouter()
	r.Run(config.AppConfig.Server.Port)
}
