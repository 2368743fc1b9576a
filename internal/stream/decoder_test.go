package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "data: {\"choices\":[{\"delta\":{\"reasoning_content\":\"thinking\"}}]}\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\r\n" +
	": keep-alive\n" +
	"\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"lo 你好\"}}]}\n" +
	"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_a\",\"function\":{\"name\":\"calculate\",\"arguments\":\"\"}}]}}]}\n" +
	"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"{\\\"a\\\":\"}}]}}]}\n" +
	"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"2}\"}}]}}]}\n" +
	"data: [DONE]\n"

func decodeAll(chunks ...[]byte) []DeltaRecord {
	d := NewDecoder(nil)
	var out []DeltaRecord
	for _, c := range chunks {
		out = append(out, d.Feed(c)...)
	}
	d.Finish()
	return out
}

func TestDecoder_WholeStream(t *testing.T) {
	records := decodeAll([]byte(sampleStream))
	require.Len(t, records, 7)

	assert.Equal(t, "thinking", records[0].ReasoningText)
	assert.Equal(t, "Hel", records[1].ContentText)
	assert.Equal(t, "lo 你好", records[2].ContentText)
	assert.Equal(t, "calculate", records[3].ToolCallFragments[0].FunctionName)
	assert.Equal(t, "{\"a\":", records[4].ToolCallFragments[0].ArgumentsChunk)
	assert.True(t, records[6].IsTerminal)
}

func TestDecoder_ChunkBoundaryInvariance(t *testing.T) {
	raw := []byte(sampleStream)
	want := decodeAll(raw)

	for split := 1; split < len(raw); split++ {
		got := decodeAll(raw[:split], raw[split:])
		require.Equal(t, want, got, "split at byte %d", split)
	}

	// one byte per read, which also splits multi-byte UTF-8 sequences
	var single [][]byte
	for i := range raw {
		single = append(single, raw[i:i+1])
	}
	assert.Equal(t, want, decodeAll(single...))
}

func TestDecoder_DiscardsTrailingPartialLine(t *testing.T) {
	d := NewDecoder(nil)
	records := d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: {\"choices\":[{\"del"))
	require.Len(t, records, 1)

	dropped := d.Finish()
	assert.Equal(t, len("data: {\"choices\":[{\"del"), dropped)
	assert.False(t, d.SawDone())
}

func TestDecoder_MalformedPayloadIsReported(t *testing.T) {
	var diagnosed []string
	d := NewDecoder(func(payload string, err error) {
		assert.ErrorIs(t, err, ErrMalformedDelta)
		diagnosed = append(diagnosed, payload)
	})

	records := d.Feed([]byte(strings.Join([]string{
		"data: {not json",
		"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}",
		"event: ping",
		"data:{\"choices\":[]}",
		"",
	}, "\n")))

	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].ContentText)
	assert.Equal(t, []string{"{not json"}, diagnosed)

	lines, produced, malformed := d.Stats()
	assert.Equal(t, 4, lines)
	assert.Equal(t, 1, produced)
	assert.Equal(t, 1, malformed)
}

func TestDecoder_DoneIsNotEndOfScanning(t *testing.T) {
	d := NewDecoder(nil)
	records := d.Feed([]byte("data: [DONE]\ndata: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n"))

	require.Len(t, records, 2)
	assert.True(t, records[0].IsTerminal)
	assert.Equal(t, "late", records[1].ContentText)
	assert.True(t, d.SawDone())
}
