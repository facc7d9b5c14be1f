package events

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopicPublishOrder(t *testing.T) {
	var topic Topic[int]
	var got []string
	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })

	topic.Publish(1)
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("publish order mismatch (-want +got):\n%s", diff)
	}
}

func TestTopicUnsubscribe(t *testing.T) {
	var topic Topic[string]
	var got []string
	unsubA := topic.Subscribe(func(v string) { got = append(got, "a:"+v) })
	topic.Subscribe(func(v string) { got = append(got, "b:"+v) })

	topic.Publish("1")
	unsubA()
	unsubA()
	topic.Publish("2")

	want := []string{"a:1", "b:1", "b:2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if topic.Len() != 1 {
		t.Errorf("Len() = %d, want 1", topic.Len())
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	var topic Topic[int]
	calls := 0
	topic.Subscribe(func(int) {
		calls++
		topic.Subscribe(func(int) { calls++ })
	})
	topic.Publish(0)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBus(t *testing.T) {
	b := NewBus()
	var result ParseResult
	b.ParsingFinished.Subscribe(func(r ParseResult) { result = r })
	b.ParsingFinished.Publish(ParseResult{Err: errors.New("boom")})
	if result.OK() {
		t.Error("result with error reported OK")
	}
	if b.EnabledChanged.Name != "enabledChanged" {
		t.Errorf("EnabledChanged.Name = %q", b.EnabledChanged.Name)
	}
}
