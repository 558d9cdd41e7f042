package log

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = "BoothXchange11111111111111111111111111111111"

func TestParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		line string
		want LogType
	}{
		{"Program " + program + " invoke [1]", LogTypeInvoke},
		{"Program " + program + " success", LogTypeSuccess},
		{"Program " + program + " failed: custom program error: 0x3", LogTypeFailed},
		{"Program " + program + " failed: INSUFFICIENT_FUNDS", LogTypeFailed},
		{"Program data: AQID", LogTypeData},
		{"Program log: Instruction: exchange", LogTypeLog},
		{"Program log: ", LogTypeLog},
		{"something else", LogTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.line).Type)
		})
	}
}

func TestParseFields(t *testing.T) {
	p := NewParser()

	invoke := p.Parse("Program " + program + " invoke [2]")
	assert.Equal(t, program, invoke.ProgramID)
	assert.Equal(t, 2, invoke.StackHeight)

	failed := p.Parse("Program " + program + " failed: custom program error: 0x1f")
	require.NotNil(t, failed.CustomCode)
	assert.Equal(t, uint32(31), *failed.CustomCode)
	assert.Equal(t, "custom program error: 0x1f", failed.Message)

	host := p.Parse("Program " + program + " failed: UNBALANCED_INSTRUCTION")
	assert.Nil(t, host.CustomCode)
	assert.Equal(t, "UNBALANCED_INSTRUCTION", host.Message)

	bad := p.Parse("Program data: not base64!")
	assert.Equal(t, LogTypeData, bad.Type)
	assert.Nil(t, bad.Data)
}

func TestProgramLogCannotForgeFrame(t *testing.T) {
	parsed := NewParser().Parse("Program log: Program " + program + " success")
	assert.Equal(t, LogTypeLog, parsed.Type)
	assert.Equal(t, "Program "+program+" success", parsed.Message)
}

func TestSummarize(t *testing.T) {
	payload := []byte{0, 1, 2, 3}
	logs := []string{
		"Program " + program + " invoke [1]",
		"Program log: Instruction: exchange",
		"Program data: " + base64.StdEncoding.EncodeToString(payload),
		"Program " + program + " success",
	}

	p := NewParser()
	out := p.Summarize(logs)
	assert.True(t, out.Success)
	assert.Equal(t, program, out.ProgramID)
	assert.Equal(t, []string{"Instruction: exchange"}, out.Messages)
	assert.Equal(t, [][]byte{payload}, out.Data)
	assert.Equal(t, [][]byte{payload}, p.ExtractProgramData(logs))
	assert.Equal(t, []string{"Instruction: exchange"}, p.ExtractProgramLogs(logs))

	failed := p.Summarize([]string{
		"Program " + program + " invoke [1]",
		"Program log: invalid account address for Oracle",
		"Program " + program + " failed: custom program error: 0x1",
	})
	assert.False(t, failed.Success)
	require.NotNil(t, failed.CustomCode)
	assert.Equal(t, uint32(1), *failed.CustomCode)
	assert.Empty(t, failed.Data)
}
