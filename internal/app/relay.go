package app

import (
	"context"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/ports"
)

const defaultRelaySubscription = "notify_admin_sub"

// Relay message limits: anything past the cap is cut down hard so the
// admin chat shows the head of the error instead of nothing.
const (
	relayMaxRunes      = 3500
	relayTruncateRunes = 1500
)

const relayFallbackText = "Не получилось отправить сообщение об ошибке в чат админа."

func (s Service) Relay(ctx context.Context, req RelayRequest) (RelayResult, error) {
	secrets, err := s.secretsPort(ctx, req.SecretsBackend, req.Project)
	if err != nil {
		return RelayResult{}, err
	}
	token, err := secrets.Get(ctx, secretBotToken)
	if err != nil {
		return RelayResult{}, err
	}
	chatValue, err := secrets.Get(ctx, secretAdminChatID)
	if err != nil {
		return RelayResult{}, err
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(chatValue), 10, 64)
	if err != nil {
		return RelayResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("admin chat id secret is not a number").
			WithCause(err)
	}
	messenger, err := s.messengerPort(token)
	if err != nil {
		return RelayResult{}, err
	}

	delivered := 0
	handle := func(ctx context.Context, payload []byte) error {
		if err := s.relayMessage(ctx, messenger, chatID, payload); err != nil {
			return err
		}
		delivered++
		return nil
	}

	if req.Once {
		if err := handle(ctx, []byte(req.Message)); err != nil {
			return RelayResult{}, err
		}
		return RelayResult{Delivered: delivered}, nil
	}

	subscription := strings.TrimSpace(req.Subscription)
	if subscription == "" {
		subscription = defaultRelaySubscription
	}
	subscriber := s.subscriberPort()
	if err := subscriber.Receive(ctx, req.Project, subscription, handle); err != nil {
		return RelayResult{Delivered: delivered}, err
	}
	return RelayResult{Delivered: delivered}, nil
}

// relayMessage forwards one payload to the admin chat, truncating
// oversized texts and falling back to a short notice when the send
// itself fails.
func (s Service) relayMessage(ctx context.Context, messenger ports.MessengerPort, chatID int64, payload []byte) error {
	text := decodeEnvelopeText(payload)
	runes := []rune(text)
	if len(runes) > relayMaxRunes {
		text = string(runes[:relayTruncateRunes])
	}
	if err := messenger.Send(ctx, chatID, text); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to relay message to admin chat")
		if fallbackErr := messenger.Send(ctx, chatID, relayFallbackText); fallbackErr != nil {
			return fallbackErr
		}
	}
	return nil
}
