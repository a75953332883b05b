package bot

// Command constants for Telegram bot commands.
const (
	CommandStart     = "/start"
	CommandHelp      = "/help"
	CommandPremium   = "/premium"
	CommandLanguage  = "/language"
	CommandAudioMode = "/audiomode"
	CommandUsage     = "/usage"
	CommandGrant     = "/grant"
)

// Callback prefix constants for inline button interactions.
const (
	CallbackLanguagePrefix = "lang:"
)
