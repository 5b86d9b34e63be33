package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Script 生成计划（LLM 返回的分镜脚本），JSON 字段沿用提示词约定的葡语键名
type Script struct {
	Title  string  `json:"titulo"`
	Scenes []Scene `json:"cenas"`
}

// Scene 单个分镜：编号从 1 开始连续递增，是跨阶段关联产物文件的唯一键
type Scene struct {
	Number      int    `json:"numero"`
	Description string `json:"descricao"` // 画面描述，喂给文生图
	Text        string `json:"texto"`     // 旁白文本，喂给 TTS
}

// Validate 校验脚本不变量：至少一个分镜；描述/旁白非空；编号唯一且从 1 连续
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("script missing title")
	}
	if len(s.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	seen := make(map[int]bool, len(s.Scenes))
	for i, c := range s.Scenes {
		if c.Number <= 0 {
			return fmt.Errorf("scene at index %d has non-positive number %d", i, c.Number)
		}
		if seen[c.Number] {
			return fmt.Errorf("duplicate scene number %d", c.Number)
		}
		seen[c.Number] = true
		if strings.TrimSpace(c.Description) == "" {
			return fmt.Errorf("scene %d has empty description", c.Number)
		}
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("scene %d has empty narration text", c.Number)
		}
	}
	for n := 1; n <= len(s.Scenes); n++ {
		if !seen[n] {
			return fmt.Errorf("scene numbers not contiguous: missing %d", n)
		}
	}
	return nil
}

// OrderedScenes 返回按编号升序排列的分镜副本（下游阶段一律按此顺序处理）
func (s *Script) OrderedScenes() []Scene {
	out := make([]Scene, len(s.Scenes))
	copy(out, s.Scenes)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

const (
	SceneStatusPending   = "pending"
	SceneStatusCompleted = "completed"
)

// SceneRecord 分镜落库记录（脚本校验通过后批量写入，后续阶段回填产物路径）
type SceneRecord struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId   string    `json:"projectId"`
	Number      int       `json:"number"`
	Description string    `json:"description"`
	Text        string    `json:"text"`
	Status      string    `json:"status"`
	ImagePath   string    `json:"imagePath"`
	AudioPath   string    `json:"audioPath"`
	Duration    float64   `json:"duration"` // 实测音频时长（秒），合成阶段回填
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func BatchCreateScenes(db *gorm.DB, scenes []SceneRecord) error {
	if len(scenes) == 0 {
		return nil
	}
	return db.Create(&scenes).Error
}

// UpdateArtifacts 回填单个分镜的产物路径与实测时长
func UpdateSceneArtifacts(db *gorm.DB, projectID string, number int, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return db.Model(&SceneRecord{}).
		Where("project_id = ? AND number = ?", projectID, number).
		Updates(updates).Error
}

func GetScenesByProjectIDGorm(db *gorm.DB, projectID string) ([]SceneRecord, error) {
	var scenes []SceneRecord
	if err := db.Where("project_id = ?", projectID).Order("number ASC").Find(&scenes).Error; err != nil {
		return nil, err
	}
	return scenes, nil
}

func (SceneRecord) TableName() string {
	return "scene"
}
