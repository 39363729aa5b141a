package handler

const (
	msgChooseCategory = "📂 Choose a category:"
	msgChooseModel    = "🔧 Choose %s model:"
	msgSelected       = "🎯 Selected: %s"
	msgSelectFirst    = "⚠️ Select model first!"
	msgUnknownModel   = "⚠️ Unknown model."
	msgUnknownCat     = "⚠️ Unknown category."
	msgUnknownCommand = "Unknown command. Try /help."
	msgNoKey          = "🔑 No API key set. Send a prompt to use this bot's key."
	msgKeyCleared     = "🗑️ API key and model cleared."
	msgBulkCleared    = "🗑️ Bulk questions cleared."
	msgBulkMenu       = "📦 Choose an option for bulk processing:"
	msgStopAck        = "🛑 Stop request acknowledged."
	msgBusy           = "⚙️ Bulk processing is already running. Use /stop first."
	msgModelLater     = "⚙️ Bulk processing is running; the new model applies from the next question."
	msgEnterList      = "📝 Please enter your bulk questions now, separated by commas. Once finished, press ✅ Done below."
	msgCollected      = "🗂️ %d questions collected. Click Done when ready."
	msgEnterFirst     = "⚠️ Please enter questions first."
	msgQueued         = "🗂️ %d questions queued. Choose a model to start."
	msgStarting       = "📡 Starting bulk processing..."
	msgResumeStart    = "📁 Resuming from where you left off...\n%d questions remaining."
	msgResuming       = "📁 Resuming %d remaining questions..."
	msgResumingRun    = "📡 Resuming bulk processing..."
	msgPickModel      = "🧠 Please select a model first."
	msgNoProgress     = "❌ No saved bulk progress found."
	msgStoreError     = "❌ Could not access saved progress."

	msgHelp = `📚 Commands:
/start - Begin
/switch - Change model
/bulk - Send questions in bulk
/stop - Stop bulk
/status - Show progress
/remove - Clear key
/clear - Clear bulk questions`

	msgStatus = `📊 Status Report:

🔑 API Key: %s
🧠 Model: %s
✅ Answered: %d / %d
📊 Progress: %s %d%%
🚀 Bulk Processing: %s`
)

var categoryLabels = map[string]string{
	"text":  "📝 Text Models",
	"image": "🖼️ Image Models",
	"audio": "🎧 Audio Models",
}
