package xgateway

// Request 代码生成请求。
type Request struct {
	// ProjectName 项目名
	ProjectName string `json:"project_name"`
	// Description 需求描述
	Description string `json:"description"`
	// ImageData base64 编码的设计图，可为空
	ImageData string `json:"image_data,omitempty"`
	// TechStack 技术栈选择，如 {"frontend": "react", "backend": "go"}
	TechStack map[string]string `json:"tech_stack,omitempty"`
}

// GeneratedFile 生成的单个文件。
type GeneratedFile struct {
	// Path 相对路径
	Path string `json:"path"`
	// Content 文件内容
	Content string `json:"content"`
	// Language 语言标识，用于前端高亮
	Language string `json:"language,omitempty"`
}

// Response 代码生成结果。
type Response struct {
	// Message 生成摘要
	Message string `json:"message"`
	// Files 生成的文件列表
	Files []GeneratedFile `json:"files"`
	// Dependencies 各技术栈的依赖清单
	Dependencies map[string][]string `json:"dependencies,omitempty"`
	// SetupInstructions 安装与启动说明
	SetupInstructions string `json:"setup_instructions,omitempty"`
	// TokensUsed 本次生成消耗的 token 数
	TokensUsed int64 `json:"tokens_used"`
	// Cost 本次生成的成本（美元）
	Cost float64 `json:"cost"`
}

// Outcome 一次 Generate 调用的结果类别。
type Outcome string

const (
	// OutcomeDenied 被准入拒绝
	OutcomeDenied Outcome = "denied"
	// OutcomeCacheHit 缓存命中，未触达上游
	OutcomeCacheHit Outcome = "cache_hit"
	// OutcomeGenerated 上游生成成功
	OutcomeGenerated Outcome = "generated"
	// OutcomeUpstreamError 上游调用失败
	OutcomeUpstreamError Outcome = "upstream_error"
)
