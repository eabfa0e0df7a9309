package convert

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/penwyp/codex-audit/internal/core/model"
	"github.com/penwyp/codex-audit/internal/util"
)

// OutputPrefix marks converted files and keeps them out of later conversion
// passes.
const OutputPrefix = "tuning_"

// TuningRecord is one fine-tuning example distilled from a turn record.
type TuningRecord struct {
	SessionID         string           `json:"session_id"`
	TurnID            *string          `json:"turn_id"`
	UserPrompt        []string         `json:"user_prompt"`
	AssistantResponse []string         `json:"assistant_response"`
	ToolCalls         []TuningToolCall `json:"tool_calls"`
	Reasoning         []string         `json:"reasoning"`
	Plan              []any            `json:"plan"`
}

// TuningToolCall keeps the call surface of a tool invocation without the
// audit bookkeeping.
type TuningToolCall struct {
	ToolName  *string            `json:"tool_name"`
	Arguments any                `json:"arguments"`
	Output    []model.ToolOutput `json:"output"`
}

// planToolName is the runtime's checklist tool; its calls become plan state
// rather than tool traffic.
const planToolName = "update_plan"

// ConvertFile rewrites one turn-log file into fine-tuning records. The output
// file is truncated first so repeated conversions are idempotent. Lines that
// fail to decode are logged and skipped.
func ConvertFile(inputPath, outputPath string) error {
	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer input.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer output.Close()

	writer := bufio.NewWriter(output)
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var record model.TurnRecord
		if err := sonic.Unmarshal(scanner.Bytes(), &record); err != nil {
			util.LogErrorf("skipping line %s:%d: %v", inputPath, lineCount, err)
			continue
		}

		line, err := sonic.Marshal(distill(&record))
		if err != nil {
			return fmt.Errorf("encode tuning record: %w", err)
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write %s: %w", outputPath, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	return writer.Flush()
}

// distill reduces a turn record to the fields a fine-tuning pipeline wants,
// diverting update_plan calls into the plan array.
func distill(record *model.TurnRecord) *TuningRecord {
	tuning := &TuningRecord{
		SessionID:         record.Session.ID,
		TurnID:            record.Turn.ID,
		UserPrompt:        emptyIfNil(record.Messages.User),
		AssistantResponse: emptyIfNil(record.Messages.Assistant),
		Reasoning:         emptyIfNil(record.Messages.Reasoning),
		ToolCalls:         []TuningToolCall{},
		Plan:              []any{},
	}

	for _, call := range record.ToolCalls {
		if call == nil {
			continue
		}
		if call.ToolName != nil && *call.ToolName == planToolName {
			plan := any([]any{})
			if args, ok := call.Arguments.(map[string]any); ok {
				if v, exists := args["plan"]; exists {
					plan = v
				}
			}
			tuning.Plan = append(tuning.Plan, plan)
			continue
		}
		tuning.ToolCalls = append(tuning.ToolCalls, TuningToolCall{
			ToolName:  call.ToolName,
			Arguments: call.Arguments,
			Output:    call.Outputs,
		})
	}

	return tuning
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ConvertDir converts every source turn log in dir, writing a tuning_
// counterpart next to each. Returns the converted source names in order.
func ConvertDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var sources []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, OutputPrefix) {
			continue
		}
		sources = append(sources, name)
	}
	sort.Strings(sources)

	for _, name := range sources {
		inputPath := filepath.Join(dir, name)
		outputPath := filepath.Join(dir, OutputPrefix+name)
		if err := ConvertFile(inputPath, outputPath); err != nil {
			return nil, err
		}
	}
	return sources, nil
}
