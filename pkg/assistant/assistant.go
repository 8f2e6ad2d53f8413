// Package assistant runs the WhatsApp chat flow: quota check, knowledge
// retrieval, prompt assembly, completion and reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finzap/finzap/pkg/knowledge"
	"github.com/finzap/finzap/pkg/llm"
	"github.com/finzap/finzap/pkg/model"
	"github.com/finzap/finzap/pkg/storage"
)

// Retriever finds contextual passages for a question.
type Retriever interface {
	Search(ctx context.Context, query string) ([]knowledge.Passage, error)
}

// Completer produces the assistant's reply from chat messages.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Sender delivers a text reply to a WhatsApp number.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

const (
	quotaExceededReply = "Você atingiu o limite de mensagens gratuitas deste mês. 😊 " +
		"Para continuar conversando sem limites, assine o plano pago respondendo ASSINAR."
	technicalProblemReply = "Estamos com um problema técnico no momento. " +
		"Tente novamente em alguns minutos, por favor!"
)

// Options tune assistant behavior; zero values get sensible defaults.
type Options struct {
	FreeQuota     int // messages per month on the free plan
	ContextBudget int // token budget for retrieved passages
	Now           func() time.Time
	Logger        *slog.Logger
}

// Assistant handles inbound user messages end to end.
type Assistant struct {
	users     storage.Store
	retriever Retriever
	completer Completer
	sender    Sender
	quota     int
	budget    int
	now       func() time.Time
	logger    *slog.Logger
}

// New wires an assistant from its collaborators.
func New(users storage.Store, retriever Retriever, completer Completer, sender Sender, opts Options) *Assistant {
	a := &Assistant{
		users:     users,
		retriever: retriever,
		completer: completer,
		sender:    sender,
		quota:     opts.FreeQuota,
		budget:    opts.ContextBudget,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if a.quota <= 0 {
		a.quota = 20
	}
	if a.budget <= 0 {
		a.budget = 1500
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// HandleMessage processes one inbound message from a WhatsApp number. The
// user never sees internal errors; on failure they get a generic apology.
func (a *Assistant) HandleMessage(ctx context.Context, from, text string) error {
	user, err := a.lookupOrCreate(ctx, from)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	if err := a.rolloverIfNeeded(ctx, user); err != nil {
		return fmt.Errorf("quota rollover: %w", err)
	}

	if user.Plan == model.PlanFree && user.MessagesUsed >= a.quota {
		a.logger.Info("free quota exhausted", "user", user.ID, "used", user.MessagesUsed)
		return a.sender.Send(ctx, from, quotaExceededReply)
	}

	passages, err := a.retriever.Search(ctx, text)
	if err != nil {
		// Retrieval is best-effort: answer without context rather than fail.
		a.logger.Warn("knowledge retrieval failed", "user", user.ID, "error", err)
		passages = nil
	}

	reply, err := a.completer.Complete(ctx, llm.BuildPrompt(text, passages, a.budget))
	if err != nil {
		a.logger.Error("completion failed", "user", user.ID, "error", err)
		if sendErr := a.sender.Send(ctx, from, technicalProblemReply); sendErr != nil {
			a.logger.Error("apology send failed", "user", user.ID, "error", sendErr)
		}
		return fmt.Errorf("complete reply: %w", err)
	}

	if err := a.sender.Send(ctx, from, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	// Count usage only after the reply actually went out.
	if err := a.users.IncrementMessageCount(ctx, user.ID); err != nil {
		a.logger.Error("usage increment failed", "user", user.ID, "error", err)
	}
	return nil
}

func (a *Assistant) lookupOrCreate(ctx context.Context, phone string) (*model.User, error) {
	user, err := a.users.GetUserByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = &model.User{
		Phone:       phone,
		Plan:        model.PlanFree,
		PeriodStart: monthStart(a.now()),
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	a.logger.Info("new user created", "user", user.ID)
	return user, nil
}

// rolloverIfNeeded resets the quota counter when the calendar month turns.
func (a *Assistant) rolloverIfNeeded(ctx context.Context, user *model.User) error {
	start := monthStart(a.now())
	if !user.PeriodStart.Before(start) {
		return nil
	}
	if err := a.users.StartNewPeriod(ctx, user.ID, start); err != nil {
		return err
	}
	user.MessagesUsed = 0
	user.PeriodStart = start
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
