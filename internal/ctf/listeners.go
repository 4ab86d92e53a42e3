package ctf

import "github.com/ethereum/go-ethereum/event"

// Listeners holds the two subscriptions made by ListenToEvents. Either may
// be nil when the matching callback was nil. Flag.Err reports a broken log
// subscription.
type Listeners struct {
	Flag     event.Subscription
	Progress event.Subscription
}

// Unsubscribe cancels both subscriptions. It returns once neither callback
// can run again.
func (l *Listeners) Unsubscribe() {
	if l == nil {
		return
	}
	if l.Flag != nil {
		l.Flag.Unsubscribe()
	}
	if l.Progress != nil {
		l.Progress.Unsubscribe()
	}
}
