package toolserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/digital-clone/server/internal/calc"
)

const maxAudioSize = 25 * 1024 * 1024

// ddgResponse covers the parts of the DuckDuckGo instant answer payload the
// search tool uses. Topic groups without Text are skipped.
type ddgResponse struct {
	Abstract      string `json:"Abstract"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (s *Server) webSearch(ctx context.Context, args map[string]any) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	var data ddgResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":             query,
			"format":        "json",
			"no_html":       "1",
			"skip_disambig": "1",
		}).
		SetResult(&data).
		Get(s.cfg.SearchBaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("Search error: %v", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("Search failed with status %d", resp.StatusCode())
	}

	var results []string
	if data.Abstract != "" {
		results = append(results, "Abstract: "+data.Abstract)
	}
	related := data.RelatedTopics
	if len(related) > 3 {
		related = related[:3]
	}
	for _, topic := range related {
		if topic.Text != "" {
			results = append(results, "Related: "+topic.Text)
		}
	}
	if len(results) == 0 {
		return "No results found.", nil
	}
	return strings.Join(results, "\n\n"), nil
}

func (s *Server) readFile(_ context.Context, args map[string]any) (string, error) {
	filePath, err := stringArg(args, "file_path")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("File not found: %s", filePath)
		}
		return "", fmt.Errorf("Error reading file: %v", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("Path is not a file: %s", filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("Error reading file: %v", err)
	}
	return fmt.Sprintf("File contents (%d characters):\n\n%s", len(content), content), nil
}

func (s *Server) writeFile(_ context.Context, args map[string]any) (string, error) {
	filePath, err := stringArg(args, "file_path")
	if err != nil {
		return "", err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("Error writing file: %v", err)
		}
	}
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("Error writing file: %v", err)
	}
	return fmt.Sprintf("Successfully wrote %d characters to %s", len(content), filePath), nil
}

func (s *Server) listDirectory(_ context.Context, args map[string]any) (string, error) {
	dirPath, err := stringArg(args, "directory_path")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("Directory not found: %s", dirPath)
		}
		return "", fmt.Errorf("Error listing directory: %v", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("Path is not a directory: %s", dirPath)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", fmt.Errorf("Error listing directory: %v", err)
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		kind := "FILE"
		size := "-"
		if entry.IsDir() {
			kind = "DIR"
		} else if fi, err := entry.Info(); err == nil {
			size = fmt.Sprintf("%d", fi.Size())
		}
		lines = append(lines, fmt.Sprintf("%-4s %8s %s", kind, size, entry.Name()))
	}
	return fmt.Sprintf("Directory listing for %s:\n\n%s", dirPath, strings.Join(lines, "\n")), nil
}

func (s *Server) calculate(_ context.Context, args map[string]any) (string, error) {
	expression, err := stringArg(args, "expression")
	if err != nil {
		return "", err
	}

	for _, c := range expression {
		if !strings.ContainsRune("0123456789+-*/(). ", c) {
			return "", fmt.Errorf("Expression contains unsafe characters")
		}
	}

	value, err := calc.Eval(expression)
	if err != nil {
		return "", fmt.Errorf("Calculation error: %v", err)
	}
	return "Result: " + calc.Format(value), nil
}

func (s *Server) getSystemInfo(_ context.Context, _ map[string]any) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}
	lines := []string{
		fmt.Sprintf("platform: %s/%s", runtime.GOOS, runtime.GOARCH),
		"go_version: " + runtime.Version(),
		"current_time: " + time.Now().Format(time.RFC3339),
		"working_directory: " + wd,
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Server) transcribeAudio(ctx context.Context, args map[string]any) (string, error) {
	filePath, err := stringArg(args, "file_path")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("Audio file not found: %s", filePath)
		}
		return "", fmt.Errorf("Error reading audio file: %v", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("Path is not a file: %s", filePath)
	}
	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".wav" {
		return "", fmt.Errorf("File must be a .wav file, got: %s", ext)
	}
	if info.Size() > maxAudioSize {
		return "", fmt.Errorf("File too large (%.1fMB). Maximum size is 25MB.", float64(info.Size())/1024/1024)
	}
	if s.cfg.OpenAIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	audio, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("Error reading audio file: %v", err)
	}
	defer audio.Close()

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.OpenAIKey).
		SetFileReader("file", filepath.Base(filePath), audio).
		SetFormData(map[string]string{
			"model":           "whisper-1",
			"response_format": "text",
		}).
		Post(s.cfg.WhisperBaseURL + "/v1/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("Transcription error: %v", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("Error from transcription API (status %d): %s", resp.StatusCode(), resp.String())
	}
	return resp.String(), nil
}
