// Package log parses the program log lines of an execution receipt.
//
// A receipt frames the program's own lines between an invoke line and a
// success or failure line:
//
//	Program <id> invoke [1]
//	Program log: Instruction: exchange
//	Program data: <base64>
//	Program <id> failed: custom program error: 0x1
//
// Example usage:
//
//	parser := log.NewParser()
//	for _, data := range parser.ExtractProgramData(receipt.Logs) {
//	    event, err := processor.DecodeExchangeEvent(data)
//	}
package log

import (
	"encoding/base64"
	"regexp"
	"strconv"
)

// LogType represents the type of a log line.
type LogType int

const (
	// LogTypeUnknown represents an unrecognized line.
	LogTypeUnknown LogType = iota
	// LogTypeInvoke represents a "Program X invoke [N]" line.
	LogTypeInvoke
	// LogTypeSuccess represents a "Program X success" line.
	LogTypeSuccess
	// LogTypeFailed represents a "Program X failed: REASON" line.
	LogTypeFailed
	// LogTypeData represents a "Program data: BASE64" line.
	LogTypeData
	// LogTypeLog represents a "Program log: MESSAGE" line.
	LogTypeLog
)

// String returns the string representation of LogType.
func (lt LogType) String() string {
	switch lt {
	case LogTypeInvoke:
		return "Invoke"
	case LogTypeSuccess:
		return "Success"
	case LogTypeFailed:
		return "Failed"
	case LogTypeData:
		return "Data"
	case LogTypeLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// ParsedLog is one classified log line.
type ParsedLog struct {
	Type LogType

	// StackHeight is the call depth of an invoke line.
	StackHeight int

	// ProgramID is set on invoke, success and failed lines.
	ProgramID string

	// Data is the decoded payload of a data line. It is nil when the
	// payload is not valid base64.
	Data []byte

	// Message is the text of a log line or the reason of a failed line.
	Message string

	// CustomCode is the program error code of a failed line, if it carries one.
	CustomCode *uint32

	RawLog string
}

// Outcome summarizes the logs of one invocation.
type Outcome struct {
	ProgramID  string
	Success    bool
	Failure    string
	CustomCode *uint32
	Messages   []string
	Data       [][]byte
}

// LogParser parses receipt logs.
type LogParser struct {
	patterns *logPatterns
}

type logPatterns struct {
	invoke  *regexp.Regexp
	success *regexp.Regexp
	failed  *regexp.Regexp
	custom  *regexp.Regexp
	data    *regexp.Regexp
	log     *regexp.Regexp
}

// NewParser creates a new LogParser.
func NewParser() *LogParser {
	return &LogParser{
		patterns: &logPatterns{
			invoke:  regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]$`),
			success: regexp.MustCompile(`^Program (\S+) success$`),
			failed:  regexp.MustCompile(`^Program (\S+) failed: (.+)$`),
			custom:  regexp.MustCompile(`^custom program error: 0x([0-9a-fA-F]+)$`),
			data:    regexp.MustCompile(`^Program data: (.+)$`),
			log:     regexp.MustCompile(`^Program log: (.*)$`),
		},
	}
}

// Parse classifies a single log line.
func (p *LogParser) Parse(logMessage string) *ParsedLog {
	result := &ParsedLog{
		Type:   LogTypeUnknown,
		RawLog: logMessage,
	}

	// Program output first so a logged message cannot pass for a frame line.
	if matches := p.patterns.log.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeLog
		result.Message = matches[1]
		return result
	}

	if matches := p.patterns.data.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeData
		if decoded, err := base64.StdEncoding.DecodeString(matches[1]); err == nil {
			result.Data = decoded
		}
		return result
	}

	if matches := p.patterns.invoke.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeInvoke
		result.ProgramID = matches[1]
		result.StackHeight, _ = strconv.Atoi(matches[2])
		return result
	}

	if matches := p.patterns.success.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeSuccess
		result.ProgramID = matches[1]
		return result
	}

	if matches := p.patterns.failed.FindStringSubmatch(logMessage); matches != nil {
		result.Type = LogTypeFailed
		result.ProgramID = matches[1]
		result.Message = matches[2]
		if custom := p.patterns.custom.FindStringSubmatch(matches[2]); custom != nil {
			if code, err := strconv.ParseUint(custom[1], 16, 32); err == nil {
				c := uint32(code)
				result.CustomCode = &c
			}
		}
		return result
	}

	return result
}

// ParseAll parses all log lines.
func (p *LogParser) ParseAll(logMessages []string) []*ParsedLog {
	results := make([]*ParsedLog, 0, len(logMessages))
	for _, log := range logMessages {
		results = append(results, p.Parse(log))
	}
	return results
}

// ExtractProgramData returns the decoded payloads of all data lines.
func (p *LogParser) ExtractProgramData(logMessages []string) [][]byte {
	var data [][]byte
	for _, log := range logMessages {
		if parsed := p.Parse(log); parsed.Type == LogTypeData && len(parsed.Data) > 0 {
			data = append(data, parsed.Data)
		}
	}
	return data
}

// ExtractProgramLogs returns the text of all log lines.
func (p *LogParser) ExtractProgramLogs(logMessages []string) []string {
	var logs []string
	for _, log := range logMessages {
		if parsed := p.Parse(log); parsed.Type == LogTypeLog {
			logs = append(logs, parsed.Message)
		}
	}
	return logs
}

// Summarize folds the logs of one invocation into an Outcome. An invocation
// without a success line is reported as failed.
func (p *LogParser) Summarize(logMessages []string) *Outcome {
	out := &Outcome{}
	for _, parsed := range p.ParseAll(logMessages) {
		switch parsed.Type {
		case LogTypeInvoke:
			out.ProgramID = parsed.ProgramID
		case LogTypeSuccess:
			out.Success = true
		case LogTypeFailed:
			out.Failure = parsed.Message
			out.CustomCode = parsed.CustomCode
		case LogTypeLog:
			out.Messages = append(out.Messages, parsed.Message)
		case LogTypeData:
			if parsed.Data != nil {
				out.Data = append(out.Data, parsed.Data)
			}
		}
	}
	return out
}
