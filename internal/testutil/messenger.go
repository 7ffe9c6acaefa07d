// Package testutil provides shared test fakes and fixtures.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Sent records one outbound delivery captured by the fake messenger.
type Sent struct {
	ChatID int64
	Text   string // empty for coordinate pins
	Lat    float64
	Lon    float64
	Pin    bool // true when this is a coordinates pin
}

// FakeMessenger is an in-memory chat transport. It records every send
// and can be told to fail deliveries to specific chat ids, mimicking
// recipients who never authorized the channel.
type FakeMessenger struct {
	mu      sync.Mutex
	outbox  []Sent
	failing map[int64]bool
	names   map[int64]string
}

// NewFakeMessenger creates an empty fake transport.
func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{
		failing: make(map[int64]bool),
		names:   make(map[int64]string),
	}
}

// FailChat makes every delivery to chatID return an error.
func (f *FakeMessenger) FailChat(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[chatID] = true
}

// SetName registers a display name for a chat id.
func (f *FakeMessenger) SetName(chatID int64, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[chatID] = name
}

// SendText implements alert.Messenger.
func (f *FakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[chatID] {
		return fmt.Errorf("chat %d: %w", chatID, errors.New("forbidden: bot was blocked by the user"))
	}
	f.outbox = append(f.outbox, Sent{ChatID: chatID, Text: text})
	return nil
}

// SendCoordinates implements alert.Messenger.
func (f *FakeMessenger) SendCoordinates(_ context.Context, chatID int64, lat, lon float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[chatID] {
		return fmt.Errorf("chat %d: %w", chatID, errors.New("forbidden: bot was blocked by the user"))
	}
	f.outbox = append(f.outbox, Sent{ChatID: chatID, Lat: lat, Lon: lon, Pin: true})
	return nil
}

// DisplayName implements alert.NameResolver.
func (f *FakeMessenger) DisplayName(_ context.Context, chatID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.names[chatID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("chat %d: no name", chatID)
}

// Outbox returns a copy of everything sent so far.
func (f *FakeMessenger) Outbox() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.outbox))
	copy(out, f.outbox)
	return out
}

// SentTo returns the deliveries addressed to chatID, in order.
func (f *FakeMessenger) SentTo(chatID int64) []Sent {
	var out []Sent
	for _, s := range f.Outbox() {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// TextsTo returns only the text deliveries addressed to chatID.
func (f *FakeMessenger) TextsTo(chatID int64) []string {
	var out []string
	for _, s := range f.SentTo(chatID) {
		if !s.Pin {
			out = append(out, s.Text)
		}
	}
	return out
}

// ReceivedText reports whether chatID got a text containing substr.
func (f *FakeMessenger) ReceivedText(chatID int64, substr string) bool {
	for _, text := range f.TextsTo(chatID) {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

// Reset clears the outbox, keeping failure and name registrations.
func (f *FakeMessenger) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = nil
}
