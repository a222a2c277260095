package notifications

import (
	"fmt"

	"github.com/pevans/newsmap/metrics"
	"github.com/pevans/newsmap/newspapers"
	"github.com/rs/zerolog"
)

// Notifier records a notification for every subscriber of a newspaper's
// country.
type Notifier struct {
	store   *NotificationStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewNotifier creates a Notifier. m may be nil.
func NewNotifier(store *NotificationStore, m *metrics.Metrics, logger zerolog.Logger) *Notifier {
	return &Notifier{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("component", "notifications").Logger(),
	}
}

// NotifyNewNewspaper notifies the subscribers of newspaper's country and
// returns how many notifications were recorded.
func (n *Notifier) NotifyNewNewspaper(newspaper newspapers.Newspaper) (int, error) {
	code := newspapers.NormalizeCode(newspaper.CountryCode)

	subs, err := n.store.SubscribersOf(code)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		err := n.store.Add(&Notification{
			UserID: sub.UserID,
			Title:  fmt.Sprintf("New newspaper in %s", code),
			Body:   fmt.Sprintf("'%s' was added to the newspapers of %s", newspaper.Title, code),
			Data: NotificationData{
				Type:        NotificationTypeNewNewspaper,
				CountryCode: code,
				NewspaperID: newspaper.ID.String(),
			},
		})
		if err != nil {
			n.metrics.AddNotifications(sent)
			return sent, err
		}
		sent++
	}

	n.metrics.AddNotifications(sent)
	if sent > 0 {
		n.logger.Info().
			Str("country_code", code).
			Str("newspaper_id", newspaper.ID.String()).
			Int("count", sent).
			Msg("notifications sent")
	}
	return sent, nil
}
