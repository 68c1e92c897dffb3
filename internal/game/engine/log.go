package engine

import "fmt"

// appendLog pushes a formatted line onto the state's rolling event log,
// dropping the oldest lines beyond the ring capacity. The log is for display
// only and is never read back by any rule.
func (s *GameState) appendLog(format string, args ...interface{}) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
	if len(s.Log) > maxLogLines {
		s.Log = s.Log[len(s.Log)-maxLogLines:]
	}
}
