package confirm

import (
	"context"
	"testing"
	"time"
)

func TestAutoModes(t *testing.T) {
	approve := NewBroker(ModeApprove, nil)
	if !approve.Ask(context.Background(), "link", "https://google.com", nil) {
		t.Fatal("approve mode should approve")
	}
	decline := NewBroker(ModeDecline, nil)
	if decline.Ask(context.Background(), "link", "https://google.com", nil) {
		t.Fatal("decline mode should decline")
	}
	if len(approve.Pending()) != 0 || len(decline.Pending()) != 0 {
		t.Fatal("auto modes never enqueue prompts")
	}
}

func TestPromptResolveApprove(t *testing.T) {
	var notified Prompt
	b := NewBroker(ModePrompt, func(p Prompt) { notified = p })

	result := make(chan bool, 1)
	go func() {
		result <- b.Ask(context.Background(), "link", "https://google.com", map[string]any{"target": "https://dfinity.org"})
	}()

	var pending []Prompt
	deadline := time.Now().Add(2 * time.Second)
	for {
		pending = b.Pending()
		if len(pending) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("prompt never appeared")
		}
		time.Sleep(time.Millisecond)
	}
	if pending[0].Kind != "link" || pending[0].Origin != "https://google.com" {
		t.Fatalf("unexpected prompt %+v", pending[0])
	}
	if notified.ID != pending[0].ID {
		t.Fatal("notify should fire with the pending prompt")
	}

	if !b.Resolve(pending[0].ID, true) {
		t.Fatal("resolve should find the prompt")
	}
	select {
	case approved := <-result:
		if !approved {
			t.Fatal("expected approval")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ask did not return")
	}
	if len(b.Pending()) != 0 {
		t.Fatal("resolved prompt should leave the queue")
	}
}

func TestPromptDecline(t *testing.T) {
	b := NewBroker(ModePrompt, nil)
	result := make(chan bool, 1)
	go func() {
		result <- b.Ask(context.Background(), "transfer", "https://google.com", nil)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(b.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("prompt never appeared")
		}
		time.Sleep(time.Millisecond)
	}
	b.Resolve(b.Pending()[0].ID, false)
	if approved := <-result; approved {
		t.Fatal("expected decline")
	}
}

func TestContextCancelDeclines(t *testing.T) {
	b := NewBroker(ModePrompt, nil)
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)
	go func() {
		result <- b.Ask(ctx, "link", "https://google.com", nil)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(b.Pending()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("prompt never appeared")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	select {
	case approved := <-result:
		if approved {
			t.Fatal("cancellation counts as a decline")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ask did not return after cancel")
	}
	if len(b.Pending()) != 0 {
		t.Fatal("cancelled prompt should leave the queue")
	}
}

func TestResolveUnknownID(t *testing.T) {
	b := NewBroker(ModePrompt, nil)
	if b.Resolve("missing", true) {
		t.Fatal("unknown id should report false")
	}
}

func TestUnknownModeDefaultsToPrompt(t *testing.T) {
	b := NewBroker(Mode("bogus"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context returns immediately with a decline, proving the
	// broker went down the prompt path rather than auto-resolving.
	if b.Ask(ctx, "link", "https://google.com", nil) {
		t.Fatal("expected decline via cancelled context")
	}
}
