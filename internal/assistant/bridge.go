package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ksk-service/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

const (
	MsgUnavailable = "К сожалению, я временно недоступен. Пожалуйста, заполните заявку вручную."

	replySchemaURL = "https://ksk.schemas.local/assistant/reply.schema.json"
)

const replySchema = `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message": {"type": "string"},
    "requestData": {
      "type": ["object", "null"],
      "properties": {
        "title": {"type": ["string", "null"]},
        "description": {"type": ["string", "null"]},
        "category": {"type": ["string", "null"]},
        "address": {"type": ["string", "null"]}
      }
    },
    "isComplete": {"type": ["boolean", "null"]}
  }
}`

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\n?")
	closingFence = regexp.MustCompile("\\n?```$")
)

// Generator sends a prompt to the language model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Bridge turns a chat transcript into a structured reply from the model.
type Bridge struct {
	generator Generator
	schema    *jsonschema.Schema
	logger    *zap.Logger
}

func NewBridge(generator Generator, logger *zap.Logger) (*Bridge, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(replySchemaURL, strings.NewReader(replySchema)); err != nil {
		return nil, fmt.Errorf("load reply schema: %w", err)
	}
	schema, err := c.Compile(replySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}

	return &Bridge{
		generator: generator,
		schema:    schema,
		logger:    logger,
	}, nil
}

// Reply never fails. Upstream errors yield an apology; unparseable output is
// returned verbatim as the message with no fields and isComplete false.
func (b *Bridge) Reply(ctx context.Context, transcript []model.ChatTurn, draft model.RequestDraft) model.AssistantReply {
	prompt, err := BuildPrompt(RenderTranscript(transcript), draft)
	if err != nil {
		b.logger.Error("build assistant prompt", zap.Error(err))
		return model.AssistantReply{Message: MsgUnavailable}
	}

	raw, err := b.generator.Generate(ctx, prompt)
	if err != nil {
		b.logger.Error("assistant upstream failed", zap.Error(err))
		return model.AssistantReply{Message: MsgUnavailable}
	}

	reply, err := b.Parse(raw)
	if err != nil {
		b.logger.Warn("assistant reply not structured", zap.Error(err))
		return model.AssistantReply{Message: raw}
	}
	return reply
}

// Parse strips a code fence, decodes the reply and checks its shape. Null fields
// are dropped, as is a category outside the catalog.
func (b *Bridge) Parse(raw string) (model.AssistantReply, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = openingFence.ReplaceAllString(text, "")
		text = closingFence.ReplaceAllString(text, "")
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return model.AssistantReply{}, fmt.Errorf("decode reply: %w", err)
	}
	if err := b.schema.Validate(doc); err != nil {
		return model.AssistantReply{}, fmt.Errorf("validate reply: %w", err)
	}

	var reply model.AssistantReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return model.AssistantReply{}, fmt.Errorf("decode reply: %w", err)
	}
	if reply.RequestData.Category != "" && !model.IsValidCategory(reply.RequestData.Category) {
		b.logger.Debug("dropping unknown category", zap.String("category", reply.RequestData.Category))
		reply.RequestData.Category = ""
	}
	return reply, nil
}

// RenderTranscript formats turns one per line, tagged with the speaker.
func RenderTranscript(turns []model.ChatTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "Ассистент"
		if t.Role == model.ChatRoleUser {
			speaker = "Пользователь"
		}
		lines = append(lines, speaker+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt embeds the draft as indented JSON and the transcript into the instructions.
func BuildPrompt(transcript string, draft model.RequestDraft) (string, error) {
	var current bytes.Buffer
	enc := json.NewEncoder(&current)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(draft); err != nil {
		return "", fmt.Errorf("encode draft: %w", err)
	}

	return fmt.Sprintf(promptTemplate,
		strings.TrimRight(current.String(), "\n"),
		transcript,
		strings.Join(model.CategoryIDs(), ", "),
	), nil
}

const promptTemplate = `Ты - помощник для подачи заявок в КСК (кооператив собственников квартир).
Твоя задача - собрать информацию о проблеме жильца и помочь сформировать заявку.

ВАЖНО: Всегда включай ТОЛЬКО СОБРАННЫЕ И ВАЛИДНЫЕ данные в requestData. Не включай null значения.

Текущие данные заявки:
%s

История разговора:
%s

Твои действия в порядке приоритета:
1. Определи категорию проблемы (%s)
2. Получи описание проблемы (минимум 20 символов)
3. Получи адрес или попроси указать местоположение на карте (нажми кнопку с иконкой маркера)
4. Сформируй краткий заголовок заявки (до 50 символов)

Инструкции:
- Ответь на русском языке, дружелюбно и кратко
- Задавай по одному вопросу за раз
- Если данные уже есть в currentData, не переспрашивай
- ОБЯЗАТЕЛЬНО требуй выбор местоположения на карте через кнопку с маркером
- Заявка НЕ может быть завершена без координат и адреса (от выбора на карте)
- Если все обязательные поля заполнены (категория, описание, адрес И координаты), установи isComplete: true
- ТОЛЬКО для валидных данных включай их в requestData объект

Формат ответа (СТРОГИЙ JSON):
{
  "message": "твой ответ пользователю",
  "requestData": {
    "title": "краткий заголовок если есть",
    "description": "описание если есть",
    "category": "категория если определена",
    "address": "адрес если указан"
  },
  "isComplete": true/false
}`
