package notifier

// TextNotifier is the minimal push surface the rebalance runner depends on.
// Concrete transports (Telegram for now) live behind it so the runner never
// imports them directly.
type TextNotifier interface {
	SendText(text string) error
}
