package locale

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/lysyi3m/rss-reader/app/feed"
)

var supported = []language.Tag{language.Russian, language.English}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.Russian: {
		"title":                 "RSS агрегатор",
		"lead":                  "Начните читать RSS сегодня! Это легко, это красиво.",
		"form.input":            "Ссылка RSS",
		"form.submit":           "Добавить",
		"example":               "Пример: http://www.fontanka.ru/fontanka.rss",
		"feedback.success":      "RSS успешно загружен",
		"feedback.loading":      "Загрузка...",
		"feedback.invalidUrl":   "Ссылка должна быть валидным URL",
		"feedback.invalidRss":   "Ресурс не содержит валидный RSS",
		"feedback.duplicate":    "RSS уже существует",
		"feedback.networkError": "Ошибка сети",
		"feedback.timeout":      "Превышено время ожидания ответа",
		"feedback.required":     "Заполните это поле",
		"feedback.unknown":      "Неизвестная ошибка",
		"feedback.pollFailed":   "Не удалось обновить",
		"items.posts":           "Посты",
		"items.feeds":           "Фиды",
		"view":                  "Просмотр",
		"modal.readFull":        "Читать полностью",
		"modal.extract":         "Показать текст",
		"modal.close":           "Закрыть",
	},
	language.English: {
		"title":                 "RSS aggregator",
		"lead":                  "Start reading RSS today! It is easy, it is beautiful.",
		"form.input":            "RSS link",
		"form.submit":           "Add",
		"example":               "Example: https://lorem-rss.hexlet.app/feed",
		"feedback.success":      "RSS has been loaded",
		"feedback.loading":      "Loading...",
		"feedback.invalidUrl":   "Link must be a valid URL",
		"feedback.invalidRss":   "Resource does not contain a valid RSS",
		"feedback.duplicate":    "RSS already exists",
		"feedback.networkError": "Network error",
		"feedback.timeout":      "Request timed out",
		"feedback.required":     "Should not be empty",
		"feedback.unknown":      "Unknown error",
		"feedback.pollFailed":   "Failed to refresh",
		"items.posts":           "Posts",
		"items.feeds":           "Feeds",
		"view":                  "View",
		"modal.readFull":        "Read full",
		"modal.extract":         "Show text",
		"modal.close":           "Close",
	},
}

var feedbackKeys = map[feed.ErrorKind]string{
	feed.ErrorKindInvalidURL:    "feedback.invalidUrl",
	feed.ErrorKindDuplicateFeed: "feedback.duplicate",
	feed.ErrorKindRequiredField: "feedback.required",
	feed.ErrorKindNotFeed:       "feedback.invalidRss",
	feed.ErrorKindNetwork:       "feedback.networkError",
	feed.ErrorKindTimeout:       "feedback.timeout",
	feed.ErrorKindUnknown:       "feedback.unknown",
}

type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for the closest supported match of lang.
func New(lang string) (*Translator, error) {
	requested, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", lang, err)
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.Russian))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("failed to register message %s: %w", key, err)
			}
		}
	}

	_, index, _ := matcher.Match(requested)
	tag := supported[index]

	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

func (t *Translator) Lang() string {
	return t.tag.String()
}

func (t *Translator) T(key string) string {
	return t.printer.Sprintf(key)
}

// Feedback returns the message shown under the form for an error kind.
func (t *Translator) Feedback(kind feed.ErrorKind) string {
	if kind == feed.ErrorKindNone {
		return ""
	}

	key, ok := feedbackKeys[kind]
	if !ok {
		key = feedbackKeys[feed.ErrorKindUnknown]
	}
	return t.T(key)
}
