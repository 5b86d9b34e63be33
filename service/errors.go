package service

import "fmt"

// 错误分类：每个阶段内部的失败都会落入以下四类之一，
// 由编排器在阶段边界捕获并带上阶段名作为终态失败原因。

// UpstreamError 外部生成/合成服务返回非成功状态码
type UpstreamError struct {
	Service    string // 哪个外部服务，例如 script / image / image-fetch / tts
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s upstream status %d: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s upstream status %d", e.Service, e.StatusCode)
}

// ScriptFormatError 脚本载荷不是合法 JSON 或违反脚本不变量
type ScriptFormatError struct {
	Reason string
	Err    error
}

func (e *ScriptFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid script: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid script: %s", e.Reason)
}

func (e *ScriptFormatError) Unwrap() error { return e.Err }

// MediaToolError 探测/编码子进程退出码非零（ffprobe / ffmpeg）
type MediaToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *MediaToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v\n%s", e.Tool, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *MediaToolError) Unwrap() error { return e.Err }

// ArtifactError 期望的产物缺失或文件系统操作失败
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
