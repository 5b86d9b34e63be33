package models

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"PromptToVideo-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *sql.DB
var GormDB *gorm.DB

func InitDB() {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("打开数据库失败: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	DB = db
	GormDB, err = gorm.Open(mysql.New(mysql.Config{
		Conn: DB,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("GORM 初始化失败: %v", err)
	}

	log.Println("数据库连接成功 (Native SQL + GORM)")

	// 自动建表（读取 doc/sql/PromptToVideo.sql）
	b, err := os.ReadFile("doc/sql/PromptToVideo.sql")
	if err != nil {
		log.Printf("读取 SQL 文件失败（跳过建表）: %v", err)
		return
	}
	sqls := strings.Split(string(b), ";")
	for _, s := range sqls {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := DB.Exec(s); err != nil {
			log.Printf("执行建表语句失败: %v ; sql: %s", err, s)
		}
	}
}

// Project CRUD
func CreateProject(p *Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := DB.Exec(
		`INSERT INTO project (id, prompt, high_quality, title, status, failed_stage, error, video_path, archive_path, video_url, archive_url, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Prompt, p.HighQuality, p.Title, p.Status, p.FailedStage, p.Error, p.VideoPath, p.ArchivePath, p.VideoUrl, p.ArchiveUrl, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func GetProjectByID(id string) (Project, error) {
	var p Project
	row := DB.QueryRow(`SELECT id, prompt, high_quality, title, status, failed_stage, error, video_path, archive_path, video_url, archive_url, created_at, updated_at FROM project WHERE id = ?`, id)
	var createdAt, updatedAt time.Time
	if err := row.Scan(&p.ID, &p.Prompt, &p.HighQuality, &p.Title, &p.Status, &p.FailedStage, &p.Error, &p.VideoPath, &p.ArchivePath, &p.VideoUrl, &p.ArchiveUrl, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}

// UpdateProjectStage 推进项目状态机（成功路径）
func UpdateProjectStage(id, status string) error {
	_, err := DB.Exec(`UPDATE project SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	return err
}

// MarkProjectFailed 记录终态失败：失败阶段 + 失败原因
func MarkProjectFailed(id, stage, cause string) error {
	_, err := DB.Exec(`UPDATE project SET status = ?, failed_stage = ?, error = ?, updated_at = ? WHERE id = ?`,
		ProjectStatusFailed, stage, cause, time.Now(), id)
	return err
}

// MarkProjectPackaged 记录终态成功：标题与两个最终产物位置
func MarkProjectPackaged(id, title, videoPath, archivePath string) error {
	_, err := DB.Exec(`UPDATE project SET status = ?, title = ?, video_path = ?, archive_path = ?, updated_at = ? WHERE id = ?`,
		ProjectStatusPackaged, title, videoPath, archivePath, time.Now(), id)
	return err
}

// UpdateProjectObjectURLs 写入 MinIO 预签名地址（仅异步链路、且配置了对象存储时）
func UpdateProjectObjectURLs(id, videoURL, archiveURL string) error {
	_, err := DB.Exec(`UPDATE project SET video_url = ?, archive_url = ?, updated_at = ? WHERE id = ?`,
		videoURL, archiveURL, time.Now(), id)
	return err
}

// Task create helper
func CreateTask(t *Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return GormDB.Create(t).Error
}

func GetTaskByID(id string) (Task, error) {
	var t Task
	err := GormDB.First(&t, "id = ?", id).Error
	return t, err
}
