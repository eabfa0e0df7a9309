package reader

import (
	"bytes"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/penwyp/codex-audit/internal/core/model"
	"github.com/penwyp/codex-audit/internal/util"
)

// snippetWidth bounds how much of a malformed transcript line lands in the
// error log, measured in terminal cells.
const snippetWidth = 120

// ReadEvents reads the transcript byte range [offset, EOF), splits it into
// newline-delimited JSON events and returns the advanced offset. Malformed
// lines are logged and skipped; they never abort the read or roll back the
// offset. A file that has vanished between locate and read yields the
// original offset and no events.
func ReadEvents(path string, offset int64) (int64, []model.Event) {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			util.LogErrorf("cannot open transcript %s: %v", path, err)
		}
		return offset, nil
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		util.LogErrorf("cannot seek transcript %s to %d: %v", path, offset, err)
		return offset, nil
	}

	chunk, err := io.ReadAll(file)
	if err != nil {
		util.LogErrorf("cannot read transcript %s: %v", path, err)
		return offset, nil
	}
	if len(chunk) == 0 {
		return offset, nil
	}

	newOffset := offset + int64(len(chunk))
	var events []model.Event
	for _, line := range bytes.Split(chunk, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var event model.Event
		if err := sonic.Unmarshal(line, &event); err != nil {
			util.LogErrorf("failed to parse session line: %v: %s", err, util.TruncateWidth(string(line), snippetWidth))
			continue
		}
		events = append(events, event)
	}

	return newOffset, events
}
