// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Role — роль автора сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall — запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // Сырой JSON аргументов
}

// Message — одно сообщение диалога.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // Заполнено у ответа модели, решившей вызвать инструменты
	ToolCallID string     // Заполнено у результата инструмента (RoleTool)
}

// SystemMessage собирает системное сообщение.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage собирает сообщение пользователя.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ToolResultMessage собирает ответ инструмента на вызов callID.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
