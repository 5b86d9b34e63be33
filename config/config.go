package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Paths struct {
		Workspace string `yaml:"workspace"` // 各项目的临时工作目录根路径
		Output    string `yaml:"output"`    // 成品视频 / 项目压缩包输出根路径
		Uploads   string `yaml:"uploads"`
		Static    string `yaml:"static"`
	} `yaml:"paths"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	AI struct {
		TextAPI          string `yaml:"text_api"`           // OpenAI chat completions
		ImageAPI         string `yaml:"image_api"`          // getimg.ai 文生图
		ImageFallbackAPI string `yaml:"image_fallback_api"` // DALL-E 兜底
		VoiceAPI         string `yaml:"voice_api"`          // OpenAI TTS
	} `yaml:"ai"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("配置文件读取失败: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("配置文件解析失败: %v", err)
	}
	ApplyDefaults(AppConfig)
}

// ApplyDefaults 填充缺省配置项（单独导出便于测试构造配置）
func ApplyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = ":5000"
	}
	if c.Paths.Workspace == "" {
		c.Paths.Workspace = "temp"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.Uploads == "" {
		c.Paths.Uploads = "uploads"
	}
	if c.Paths.Static == "" {
		c.Paths.Static = "./static"
	}
	if c.AI.TextAPI == "" {
		c.AI.TextAPI = "https://api.openai.com/v1/chat/completions"
	}
	if c.AI.ImageAPI == "" {
		c.AI.ImageAPI = "https://api.getimg.ai/v1/stable-diffusion/text-to-image"
	}
	if c.AI.ImageFallbackAPI == "" {
		c.AI.ImageFallbackAPI = "https://api.openai.com/v1/images/generations"
	}
	if c.AI.VoiceAPI == "" {
		c.AI.VoiceAPI = "https://api.openai.com/v1/audio/speech"
	}
}
