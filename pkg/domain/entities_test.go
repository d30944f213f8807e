package domain

import (
	"encoding/json"
	"testing"
)

func TestSubscriptionListScanAndValue(t *testing.T) {
	list := SubscriptionList{
		{Endpoint: "https://push.example/a", Keys: SubscriptionKeys{P256dh: "p", Auth: "a"}},
	}
	raw, err := list.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded SubscriptionList
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Keys.Auth != "a" {
		t.Fatalf("unexpected decoded list %+v", decoded)
	}

	var empty SubscriptionList
	raw, _ = empty.Value()
	if string(raw.([]byte)) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", raw)
	}
}

func TestSubscriptionDecodesBrowserJSON(t *testing.T) {
	input := `{"endpoint":"https://push.example/a","expirationTime":null,"keys":{"p256dh":"BOr","auth":"xyz"}}`
	var sub Subscription
	if err := json.Unmarshal([]byte(input), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sub.Endpoint != "https://push.example/a" || sub.Keys.P256dh != "BOr" || sub.ExpirationTime != nil {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if !sub.Valid() {
		t.Fatalf("expected valid subscription")
	}
	if (Subscription{Endpoint: "  "}).Valid() {
		t.Fatalf("blank endpoint should be invalid")
	}
}

func TestPayloadOmitsOptionalFields(t *testing.T) {
	raw, err := json.Marshal(Payload{Title: "Alert", Body: "Door open"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"title":"Alert","body":"Door open","requireInteraction":false}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestIntentClassification(t *testing.T) {
	if !IntentFetchedSubscription.IsSubscribe() || IntentNewUnsubscription.IsSubscribe() {
		t.Fatalf("subscribe classification incorrect")
	}
	if !IntentFetchSubscriptions.IsPassThrough() || IntentPushNotification.IsPassThrough() {
		t.Fatalf("pass-through classification incorrect")
	}
	if !IntentNewUnsubscription.Known() || !IntentReloadServiceWorkers.Known() || Intent("bogus").Known() {
		t.Fatalf("known classification incorrect")
	}
}
