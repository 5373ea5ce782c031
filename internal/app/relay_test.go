package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayService(messenger *fakeMessenger, subscriber fakeSubscriber) Service {
	svc := NewService()
	svc.Secrets = fakeSecrets{values: map[string]string{
		secretBotToken:    "123:token",
		secretAdminChatID: "424242",
	}}
	svc.Messenger = messenger
	svc.Subscriber = subscriber
	return svc
}

func TestRelayOnce(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := relayService(messenger, fakeSubscriber{})

	result, err := svc.Relay(context.Background(), RelayRequest{
		Once:    true,
		Message: "deploy failed: preflight",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, int64(424242), messenger.sent[0].ChatID)
	assert.Equal(t, "deploy failed: preflight", messenger.sent[0].Text)
}

func TestRelayFromSubscription(t *testing.T) {
	first, err := encodeEnvelope("ошибка в identify_updates")
	require.NoError(t, err)
	messenger := &fakeMessenger{}
	svc := relayService(messenger, fakeSubscriber{payloads: [][]byte{
		first,
		[]byte("raw text payload"),
	}})

	result, err := svc.Relay(context.Background(), RelayRequest{Project: "sar-prod"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	require.Len(t, messenger.sent, 2)
	assert.Equal(t, "ошибка в identify_updates", messenger.sent[0].Text)
	assert.Equal(t, "raw text payload", messenger.sent[1].Text)
}

func TestRelayTruncatesOversizedMessages(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := relayService(messenger, fakeSubscriber{})

	result, err := svc.Relay(context.Background(), RelayRequest{
		Once:    true,
		Message: strings.Repeat("я", relayMaxRunes+1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, messenger.sent, 1)
	assert.Len(t, []rune(messenger.sent[0].Text), relayTruncateRunes)
}

func TestRelayFallsBackWhenSendFails(t *testing.T) {
	messenger := &fakeMessenger{failNext: 1}
	svc := relayService(messenger, fakeSubscriber{})

	result, err := svc.Relay(context.Background(), RelayRequest{
		Once:    true,
		Message: "unsendable",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, relayFallbackText, messenger.sent[0].Text)
}

func TestRelayFailsWhenFallbackFails(t *testing.T) {
	messenger := &fakeMessenger{failNext: 2}
	svc := relayService(messenger, fakeSubscriber{})

	_, err := svc.Relay(context.Background(), RelayRequest{Once: true, Message: "unsendable"})
	require.Error(t, err)
}

func TestRelayRejectsNonNumericChatID(t *testing.T) {
	svc := NewService()
	svc.Secrets = fakeSecrets{values: map[string]string{
		secretBotToken:    "123:token",
		secretAdminChatID: "not-a-number",
	}}
	svc.Messenger = &fakeMessenger{}

	_, err := svc.Relay(context.Background(), RelayRequest{Once: true, Message: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin chat id secret is not a number")
}

func TestRelayMissingSecret(t *testing.T) {
	svc := NewService()
	svc.Secrets = fakeSecrets{values: map[string]string{}}

	_, err := svc.Relay(context.Background(), RelayRequest{Once: true, Message: "x"})
	require.Error(t, err)
}
