package domain

// Intent tags an inbound command with the action it requests.
type Intent string

const (
	IntentClearSubscriptions     Intent = "clear_subscriptions"
	IntentPushNotification       Intent = "push_notification"
	IntentRefreshStatus          Intent = "refresh_node_status"
	IntentNewSubscription        Intent = "new_subscription"
	IntentAutoLoadedSubscription Intent = "auto_loaded_subscription"
	IntentFetchedSubscription    Intent = "fetched_subscription"
	IntentNewUnsubscription      Intent = "new_unsubscription"
	IntentReloadServiceWorkers   Intent = "reload_service_workers"
	IntentFetchSubscriptions     Intent = "fetch_subscriptions"
)

// IsSubscribe reports whether the intent stores a subscription.
func (i Intent) IsSubscribe() bool {
	switch i {
	case IntentNewSubscription, IntentAutoLoadedSubscription, IntentFetchedSubscription:
		return true
	default:
		return false
	}
}

// IsPassThrough reports whether the intent is only meant for the frontend.
func (i Intent) IsPassThrough() bool {
	return i == IntentReloadServiceWorkers || i == IntentFetchSubscriptions
}

// Known reports whether the intent is routed by the command router.
func (i Intent) Known() bool {
	switch i {
	case IntentClearSubscriptions, IntentPushNotification, IntentRefreshStatus, IntentNewUnsubscription:
		return true
	default:
		return i.IsSubscribe() || i.IsPassThrough()
	}
}

// FromBrowser reports whether a browser client may send the intent.
func (i Intent) FromBrowser() bool {
	return i.IsSubscribe() || i == IntentNewUnsubscription
}
