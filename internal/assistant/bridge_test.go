package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ksk-service/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func newBridge(t *testing.T, gen Generator) *Bridge {
	t.Helper()
	b, err := NewBridge(gen, zap.NewNop())
	require.NoError(t, err)
	return b
}

var transcript = []model.ChatTurn{
	{Role: model.ChatRoleAssistant, Content: "Здравствуйте!"},
	{Role: model.ChatRoleUser, Content: "Во дворе не горит фонарь"},
}

func TestBridge_ParsesStructuredReply(t *testing.T) {
	gen := &fakeGenerator{reply: `{"message":"Где именно?","requestData":{"category":"lighting","title":null,"description":"Во дворе не горит фонарь"},"isComplete":false}`}
	reply := newBridge(t, gen).Reply(context.Background(), transcript, model.RequestDraft{})

	want := model.AssistantReply{
		Message: "Где именно?",
		RequestData: model.RequestFields{
			Category:    "lighting",
			Description: "Во дворе не горит фонарь",
		},
	}
	if diff := cmp.Diff(want, reply); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestBridge_StripsCodeFence(t *testing.T) {
	for _, raw := range []string{
		"```json\n{\"message\":\"ok\",\"isComplete\":true}\n```",
		"```\n{\"message\":\"ok\",\"isComplete\":true}\n```",
		"  ```json{\"message\":\"ok\",\"isComplete\":true}```  ",
	} {
		reply := newBridge(t, &fakeGenerator{reply: raw}).Reply(context.Background(), transcript, model.RequestDraft{})
		assert.Equal(t, "ok", reply.Message, raw)
		assert.True(t, reply.IsComplete, raw)
	}
}

func TestBridge_DegradesOnMalformedReply(t *testing.T) {
	for _, raw := range []string{
		"Расскажите подробнее, пожалуйста.",
		`{"requestData":{}}`,
		`{"message":42}`,
		`{"message":"x","requestData":{"title":7}}`,
		`["message"]`,
	} {
		reply := newBridge(t, &fakeGenerator{reply: raw}).Reply(context.Background(), transcript, model.RequestDraft{})
		assert.Equal(t, model.AssistantReply{Message: raw}, reply)
	}
}

func TestBridge_DegradesOnUpstreamFailure(t *testing.T) {
	reply := newBridge(t, &fakeGenerator{err: errors.New("quota exceeded")}).Reply(context.Background(), transcript, model.RequestDraft{})
	assert.Equal(t, model.AssistantReply{Message: MsgUnavailable}, reply)
}

func TestBridge_DropsUnknownCategory(t *testing.T) {
	reply, err := newBridge(t, &fakeGenerator{}).Parse(`{"message":"ok","requestData":{"category":"plumbing","address":"ул. Абая 1"}}`)
	require.NoError(t, err)
	assert.Empty(t, reply.RequestData.Category)
	assert.Equal(t, "ул. Абая 1", reply.RequestData.Address)
}

func TestBridge_PromptCarriesTranscriptAndDraft(t *testing.T) {
	gen := &fakeGenerator{reply: `{"message":"ok"}`}
	coords := model.Coordinates{43.25, 76.95}
	draft := model.RequestDraft{
		RequestFields: model.RequestFields{Category: "lift"},
		Coordinates:   &coords,
	}
	newBridge(t, gen).Reply(context.Background(), transcript, draft)

	assert.Contains(t, gen.prompt, "Ассистент: Здравствуйте!\nПользователь: Во дворе не горит фонарь")
	assert.Contains(t, gen.prompt, `"category": "lift"`)
	assert.Contains(t, gen.prompt, "43.25")
	assert.Contains(t, gen.prompt, strings.Join(model.CategoryIDs(), ", "))
}

func TestRenderTranscript_Empty(t *testing.T) {
	assert.Equal(t, "", RenderTranscript(nil))
}

func TestBridge_DisabledGeneratorApologises(t *testing.T) {
	reply := newBridge(t, DisabledGenerator{}).Reply(context.Background(), transcript, model.RequestDraft{})
	assert.Equal(t, MsgUnavailable, reply.Message)
	assert.False(t, reply.IsComplete)
}
