package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Apology is returned to the user whenever the assistant cannot answer.
const Apology = "Désolé, je rencontre des difficultés pour me connecter au serveur. Veuillez réessayer plus tard."

const (
	TurnUser  = "user"
	TurnModel = "model"
)

// ChatTurn is one exchange entry as the dashboard keeps it.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Greeting is the assistant's first message for a new clinic.
func Greeting(specialty string) string {
	return fmt.Sprintf("Bonjour Dr. Je suis votre assistant spécialisé en %s. Posez-moi une question sur un patient, un médicament ou une procédure.", specialty)
}

// SystemInstruction builds the assistant persona for specialty.
func SystemInstruction(specialty, message string) string {
	return fmt.Sprintf(`You are an expert AI medical assistant for a %[1]s clinic in Algeria.

Your Role:
1. Act as a highly knowledgeable assistant in the field of "%[1]s".
2. If the specialty is "Dentiste", use dental terminology (teeth numbers, procedures).
3. If "Pédiatre", be reassuring, discuss child growth, vaccinations (Algerian schedule).
4. If "Généraliste", cover general health, diagnosis, and orientation.
5. Always keep the context of Algeria (medications available in Algeria, DZD currency if discussed, local culture).
6. Be helpful, professional, and concise.
7. Answer in French.

Current context: User is asking about: %[2]q`, specialty, message)
}

// ChatClient answers practitioner questions. It never returns an error;
// failures become Apology.
type ChatClient struct {
	llm     LLMClient
	model   string
	logger  *logging.Logger
	metrics *metrics.DashboardMetrics
	tracer  trace.Tracer
}

func NewChatClient(llm LLMClient, model string, m *metrics.DashboardMetrics, logger *logging.Logger) *ChatClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatClient{
		llm:     llm,
		model:   model,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("medicpro.internal.ai.chat"),
	}
}

// Reply sends the whole history plus message and returns the model's text.
func (c *ChatClient) Reply(ctx context.Context, message string, history []ChatTurn, specialty string) string {
	ctx, span := c.tracer.Start(ctx, "ai.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.specialty", specialty),
		attribute.Int("chat.history_len", len(history)),
	)

	if c.llm == nil {
		c.logger.Error("assistant unavailable", "error", ErrMissingCredential.Error())
		c.metrics.ObserveChat("apology")
		return Apology
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		role := ChatRoleUser
		if turn.Role == TurnModel {
			role = ChatRoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	resp, err := c.llm.Complete(ctx, LLMRequest{
		Model:       c.model,
		System:      []string{SystemInstruction(specialty, message)},
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Error("assistant reply failed", "error", err.Error(), "specialty", specialty)
		c.metrics.ObserveChat("apology")
		return Apology
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		c.logger.Warn("assistant returned empty reply", "specialty", specialty)
		c.metrics.ObserveChat("apology")
		return Apology
	}
	c.metrics.ObserveChat("ok")
	return text
}
