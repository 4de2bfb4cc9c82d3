package store

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message in a platform conversation table.
type ConversationTurn struct {
	ID         int64
	Platform   string
	ChatID     string
	SenderID   string
	SenderName string
	Role       string
	Content    string
	CreatedTs  int64
}

// conversationTables lists the platforms that keep their own conversation table.
var conversationTables = map[string]string{
	"telegram": "telegram_messages",
	"discord":  "discord_messages",
	"x":        "x_conversations",
	"twitter":  "x_conversations",
}

// ConversationTable returns the conversation table of a platform, if it has one.
func ConversationTable(platform string) (string, bool) {
	table, ok := conversationTables[platform]
	return table, ok
}
