package dto

// ── 交互式输入 ──

// BeginPromptRequest 进入等待输入状态
type BeginPromptRequest struct {
	Kind string `json:"kind" binding:"required,oneof=share_code nickname signature"`
}

// PromptResponse 等待输入提示
type PromptResponse struct {
	Kind      string `json:"kind"`
	Prompt    string `json:"prompt"`
	ExpiresAt string `json:"expires_at"`
}

// ConversationMessageRequest 用户发送的下一条消息
type ConversationMessageRequest struct {
	Text           string `json:"text" binding:"required"`
	SenderNickname string `json:"sender_nickname" binding:"omitempty,max=64"`
}

// ConversationReply 消息处理结果
// Handled=false 表示该用户没有待处理的输入，宿主应按普通消息处理
type ConversationReply struct {
	Handled bool        `json:"handled"`
	Kind    string      `json:"kind,omitempty"`
	Reply   string      `json:"reply,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}
