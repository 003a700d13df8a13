package model

// Recognized tool names shared by the agent, the tool proxy and the
// executor.
const (
	ToolWebSearch       = "web_search"
	ToolReadFile        = "read_file"
	ToolWriteFile       = "write_file"
	ToolListDirectory   = "list_directory"
	ToolCalculate       = "calculate"
	ToolGetSystemInfo   = "get_system_info"
	ToolTranscribeAudio = "transcribe_audio"
)

// ToolParam describes one named argument of a tool.
type ToolParam struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ToolInfo describes a tool exposed through the proxy.
type ToolInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]ToolParam `json:"parameters"`
}

// ToolCatalog is the canonical registry of recognized tools and their
// argument shapes, served by the agent's /tools endpoint and the proxy's
// /mcp probe.
func ToolCatalog() []ToolInfo {
	return []ToolInfo{
		{
			Name:        ToolWebSearch,
			Description: "Search the web for information",
			Parameters: map[string]ToolParam{
				"query": {Type: "string", Description: "Search query"},
			},
		},
		{
			Name:        ToolReadFile,
			Description: "Read contents of a file",
			Parameters: map[string]ToolParam{
				"file_path": {Type: "string", Description: "Path to file"},
			},
		},
		{
			Name:        ToolWriteFile,
			Description: "Write content to a file",
			Parameters: map[string]ToolParam{
				"file_path": {Type: "string", Description: "Path to file"},
				"content":   {Type: "string", Description: "Content to write"},
			},
		},
		{
			Name:        ToolListDirectory,
			Description: "List contents of a directory",
			Parameters: map[string]ToolParam{
				"directory_path": {Type: "string", Description: "Path to directory"},
			},
		},
		{
			Name:        ToolCalculate,
			Description: "Evaluate arithmetic expressions",
			Parameters: map[string]ToolParam{
				"expression": {Type: "string", Description: "Arithmetic expression"},
			},
		},
		{
			Name:        ToolGetSystemInfo,
			Description: "Get current system information",
			Parameters:  map[string]ToolParam{},
		},
		{
			Name:        ToolTranscribeAudio,
			Description: "Transcribe audio from a .wav file using OpenAI's Whisper API",
			Parameters: map[string]ToolParam{
				"file_path": {Type: "string", Description: "Path to the .wav audio file"},
			},
		},
	}
}
