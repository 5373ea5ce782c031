package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"funcfleet/internal/core"
	"funcfleet/internal/ports"
	"funcfleet/internal/types"
)

// forumTopicURL links a search topic for the bot's replies.
const forumTopicURL = "https://lizaalert.org/forum/viewtopic.php?t=%d"

const nearbySearchLimit = 20

// Menu texts. Button labels double as dispatch keys, so they must stay
// in sync with the keyboards below.
const (
	buttonRegions   = "Настроить регион поисков"
	buttonPrefs     = "Настроить уведомления"
	buttonNearby    = "Поиски рядом со мной"
	buttonMainMenu  = "В главное меню"
	greetingText    = "Привет! Я бот ЛизаАлерт. Выберите, что настроить, или отправьте геопозицию, чтобы видеть поиски рядом."
	helpText        = "Не понимаю эту команду. Воспользуйтесь кнопками меню."
	mediaReplyText  = "К сожалению, я не обрабатываю файлы и медиа. Напишите текстом или воспользуйтесь меню."
	contactReply    = "Спасибо! Контакты мне не нужны, достаточно кнопок меню."
	inlineReply     = "Я работаю только в личном чате. Напишите мне напрямую."
	locationPrompt  = "Сначала отправьте свою геопозицию, чтобы я знал, где искать."
	noSearchesReply = "Поблизости нет недавних поисков."
)

// regionFolders maps region menu buttons to the forum folders the
// region's searches live in.
var regionFolders = []types.RegionFolders{
	{Region: "Москва и МО", Folders: []int{276, 41}},
	{Region: "Санкт-Петербург и ЛО", Folders: []int{90}},
	{Region: "Владимирская область", Folders: []int{123}},
	{Region: "Нижегородская область", Folders: []int{121}},
	{Region: "Тульская область", Folders: []int{125}},
	{Region: "Краснодарский край", Folders: []int{66}},
	{Region: "Свердловская область", Folders: []int{213}},
	{Region: "Другие регионы", Folders: []int{1}},
}

// prefButtons maps notification menu buttons to stored preference ids.
var prefButtons = []struct {
	Label string
	ID    int
	Name  string
}{
	{"Новые поиски", types.PrefTopicNew, "topic_new"},
	{"Изменения статуса", types.PrefTopicStatusChange, "topic_status_change"},
	{"Изменения заголовка", types.PrefTopicTitleChange, "topic_title_change"},
	{"Новые комментарии", types.PrefTopicCommentNew, "topic_comment_new"},
	{"Комментарии инфорга", types.PrefTopicInforgComment, "topic_inforg_comment_new"},
	{"Новые выезды", types.PrefTopicFieldTripNew, "topic_field_trip_new"},
	{"Изменения выездов", types.PrefTopicFieldTripChange, "topic_field_trip_change"},
	{"Изменения координат", types.PrefTopicCoordsChange, "topic_coords_change"},
	{"Новости бота", types.PrefBotNews, "bot_news"},
	{"Все уведомления", types.PrefAll, "all"},
}

// WebhookHandler builds the HTTP handler that receives Telegram update
// callbacks and drives the subscriber bot.
func (s Service) WebhookHandler(ctx context.Context, req WebhookRequest) (http.Handler, error) {
	secrets, err := s.secretsPort(ctx, req.SecretsBackend, req.Project)
	if err != nil {
		return nil, err
	}
	token, err := secrets.Get(ctx, secretBotToken)
	if err != nil {
		return nil, err
	}
	messenger, err := s.messengerPort(token)
	if err != nil {
		return nil, err
	}
	users, err := s.webhookUserStore(ctx, req, secrets)
	if err != nil {
		return nil, err
	}
	return &webhookBot{
		messenger: messenger,
		users:     users,
		topics:    s.topicsPort(),
		project:   req.Project,
		clock:     s.Clock,
		publish:   s.publishEvent,
	}, nil
}

func (s Service) webhookUserStore(ctx context.Context, req WebhookRequest, secrets ports.SecretsPort) (ports.UserStorePort, error) {
	if s.UserStore != nil {
		return s.UserStore, nil
	}
	url := strings.TrimSpace(req.DatabaseURL)
	if url == "" {
		var err error
		url, err = secrets.Get(ctx, secretDatabaseURL)
		if err != nil {
			return nil, err
		}
	}
	return s.userStorePort(url)
}

type webhookBot struct {
	messenger ports.MessengerPort
	users     ports.UserStorePort
	topics    ports.TopicsPort
	project   string
	clock     func() time.Time
	publish   func(ctx context.Context, topics ports.TopicsPort, project string, topic string, message any) error
}

// ServeHTTP answers 200 for every well-formed update even when the
// handler fails, so Telegram does not retry-storm the webhook.
func (b *webhookBot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}
	if err := b.handleUpdate(r.Context(), update); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Int("update_id", update.UpdateID).Msg("webhook update failed")
	}
	w.WriteHeader(http.StatusOK)
}

func (b *webhookBot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.ChannelPost != nil:
		// The bot has no business sitting in channels.
		return b.messenger.LeaveChat(ctx, update.ChannelPost.Chat.ID)
	case update.MyChatMember != nil:
		return b.handleMemberChange(ctx, *update.MyChatMember)
	case update.InlineQuery != nil:
		return b.messenger.Send(ctx, update.InlineQuery.From.ID, inlineReply)
	case update.Message != nil:
		return b.handleMessage(ctx, *update.Message)
	}
	return nil
}

func (b *webhookBot) handleMemberChange(ctx context.Context, change tgbotapi.ChatMemberUpdated) error {
	userID := change.From.ID
	now := timeNow(b.clock)
	var status, action string
	switch change.NewChatMember.Status {
	case "kicked", "left":
		status, action = types.UserStatusBlocked, "block_user"
	case "member":
		status, action = types.UserStatusActive, "unblock_user"
	default:
		return nil
	}
	if err := b.users.SetUserStatus(ctx, userID, status, now); err != nil {
		return err
	}
	return b.publishUserEvent(ctx, action, userID)
}

func (b *webhookBot) publishUserEvent(ctx context.Context, action string, userID int64) error {
	event := struct {
		Action string `json:"action"`
		Info   struct {
			User int64 `json:"user"`
		} `json:"info"`
	}{Action: action}
	event.Info.User = userID
	return b.publish(ctx, b.topics, b.project, userManagementTopic, event)
}

func (b *webhookBot) handleMessage(ctx context.Context, msg tgbotapi.Message) error {
	chatID := msg.Chat.ID
	switch {
	case msg.Contact != nil:
		return b.messenger.Send(ctx, chatID, contactReply)
	case len(msg.Photo) > 0, msg.Document != nil, msg.Voice != nil, msg.Sticker != nil:
		return b.messenger.Send(ctx, chatID, mediaReplyText)
	case msg.Location != nil:
		return b.handleLocation(ctx, msg)
	}
	return b.handleText(ctx, msg)
}

func (b *webhookBot) handleLocation(ctx context.Context, msg tgbotapi.Message) error {
	coords := types.UserCoordinates{
		UserID:    msg.From.ID,
		Latitude:  msg.Location.Latitude,
		Longitude: msg.Location.Longitude,
		UpdatedAt: timeNow(b.clock),
	}
	if err := b.users.UpsertCoordinates(ctx, coords); err != nil {
		return err
	}
	reply := fmt.Sprintf("Координаты сохранены: %.5f, %.5f\n%s",
		coords.Latitude, coords.Longitude, core.YandexMapsLink(coords.Latitude, coords.Longitude))
	return b.messenger.Send(ctx, msg.Chat.ID, reply)
}

func (b *webhookBot) handleText(ctx context.Context, msg tgbotapi.Message) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	switch text {
	case "/start":
		return b.handleStart(ctx, msg)
	case buttonRegions:
		return b.messenger.SendWithKeyboard(ctx, chatID, "Выберите регион:", regionKeyboard())
	case buttonPrefs:
		return b.messenger.SendWithKeyboard(ctx, chatID, "Выберите тип уведомлений:", prefKeyboard())
	case buttonNearby:
		return b.handleNearby(ctx, msg)
	case buttonMainMenu:
		return b.messenger.SendWithKeyboard(ctx, chatID, greetingText, mainKeyboard())
	}
	for _, region := range regionFolders {
		if text == region.Region {
			return b.toggleRegion(ctx, msg, region)
		}
	}
	for _, pref := range prefButtons {
		if text == pref.Label {
			return b.togglePreference(ctx, msg, pref.ID, pref.Name)
		}
	}
	return b.messenger.Send(ctx, chatID, helpText)
}

func (b *webhookBot) handleStart(ctx context.Context, msg tgbotapi.Message) error {
	userID := msg.From.ID
	if err := b.users.SetUserStatus(ctx, userID, types.UserStatusActive, timeNow(b.clock)); err != nil {
		return err
	}
	if err := b.publishUserEvent(ctx, "new", userID); err != nil {
		return err
	}
	return b.messenger.SendWithKeyboard(ctx, msg.Chat.ID, greetingText, mainKeyboard())
}

func (b *webhookBot) toggleRegion(ctx context.Context, msg tgbotapi.Message, region types.RegionFolders) error {
	userID := msg.From.ID
	subscribed := false
	for _, folder := range region.Folders {
		on, err := b.users.ToggleRegionalPreference(ctx, userID, folder)
		if err != nil {
			return err
		}
		subscribed = on
	}
	reply := fmt.Sprintf("Регион %q отключен.", region.Region)
	if subscribed {
		reply = fmt.Sprintf("Регион %q подключен. Вы будете получать уведомления по нему.", region.Region)
	}
	return b.messenger.SendWithKeyboard(ctx, msg.Chat.ID, reply, regionKeyboard())
}

func (b *webhookBot) togglePreference(ctx context.Context, msg tgbotapi.Message, prefID int, name string) error {
	userID := msg.From.ID
	current, err := b.users.Preferences(ctx, userID)
	if err != nil {
		return err
	}
	enabled := false
	for _, pref := range current {
		if pref.PrefID == prefID {
			enabled = true
			break
		}
	}
	var reply string
	if enabled {
		if err := b.users.DeletePreference(ctx, userID, prefID); err != nil {
			return err
		}
		reply = "Уведомления отключены."
	} else {
		if err := b.users.SetPreference(ctx, userID, prefID, name); err != nil {
			return err
		}
		reply = "Уведомления подключены."
	}
	return b.messenger.SendWithKeyboard(ctx, msg.Chat.ID, reply, prefKeyboard())
}

// handleNearby lists the recent searches sorted as stored, each with
// the distance and bearing from the user's saved location.
func (b *webhookBot) handleNearby(ctx context.Context, msg tgbotapi.Message) error {
	chatID := msg.Chat.ID
	coords, found, err := b.users.Coordinates(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if !found {
		return b.messenger.Send(ctx, chatID, locationPrompt)
	}
	searches, err := b.users.RecentSearches(ctx, nearbySearchLimit)
	if err != nil {
		return err
	}
	now := timeNow(b.clock)
	var lines []string
	for _, search := range searches {
		if !search.HasCoords {
			continue
		}
		distance := core.HaversineKm(coords.Latitude, coords.Longitude, search.Latitude, search.Longitude)
		arrow := core.BearingArrow(coords.Latitude, coords.Longitude, search.Latitude, search.Longitude)
		age := core.SearchAgeWords(search.StartTime, now)
		lines = append(lines, fmt.Sprintf("%s %s. %.0f км %s %s\n%s",
			search.StatusShort, age, distance, arrow, search.Title,
			fmt.Sprintf(forumTopicURL, search.TopicID)))
	}
	if len(lines) == 0 {
		return b.messenger.Send(ctx, chatID, noSearchesReply)
	}
	return b.messenger.Send(ctx, chatID, strings.Join(lines, "\n\n"))
}

func mainKeyboard() [][]string {
	return [][]string{
		{buttonNearby},
		{buttonRegions},
		{buttonPrefs},
	}
}

func regionKeyboard() [][]string {
	rows := make([][]string, 0, len(regionFolders)+1)
	for _, region := range regionFolders {
		rows = append(rows, []string{region.Region})
	}
	rows = append(rows, []string{buttonMainMenu})
	return rows
}

func prefKeyboard() [][]string {
	rows := make([][]string, 0, len(prefButtons)+1)
	for _, pref := range prefButtons {
		rows = append(rows, []string{pref.Label})
	}
	rows = append(rows, []string{buttonMainMenu})
	return rows
}
