package tools

import "sync"

//nolint:gochecknoglobals // catalog initialization runs once per process
var catalogOnce sync.Once

// ToolSpeak is the name the executor treats as the communication tool.
const ToolSpeak = "speak"

// InitCatalog registers the built-in tools. Safe to call more than once;
// only the first call registers.
func InitCatalog() {
	catalogOnce.Do(func() {
		Register(&SpeakTool{})
		Register(&WaitTool{})
		Register(&SearchTool{})
		Register(&DirectoryTool{})
		Register(&SaveDocumentTool{})
		Register(&ReadDocumentTool{})
		Register(&SearchDocumentsTool{})
	})
}
