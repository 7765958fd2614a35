// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── context ──

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-1")

	got, ok := GetTraceIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "trace-1", got)

	_, ok = GetTraceIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "traceID", TraceIDCtxKey.String())
}

// ── ContentHasher ──

func TestContentHasher_Deterministic(t *testing.T) {
	h := NewContentHasher("secret")

	assert.Equal(t, h.Sum([]byte("cow")), h.Sum([]byte("cow")))
	assert.NotEqual(t, h.Sum([]byte("cow")), h.Sum([]byte("calf")))
	assert.Len(t, h.Sum(nil), 64)
}

func TestContentHasher_KeyMatters(t *testing.T) {
	a := NewContentHasher("key-a").Sum([]byte("payload"))
	b := NewContentHasher("key-b").Sum([]byte("payload"))
	assert.NotEqual(t, a, b)
}

func TestContentHasher_LongKey(t *testing.T) {
	h := NewContentHasher(strings.Repeat("k", 200))
	assert.Len(t, h.Sum([]byte("x")), 64)
}

func TestContentHasher_SumJSON(t *testing.T) {
	h := NewContentHasher("secret")

	a, err := h.SumJSON(map[string]int{"weight": 410})
	require.NoError(t, err)
	b, err := h.SumJSON(map[string]int{"weight": 410})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = h.SumJSON(make(chan int))
	assert.Error(t, err)
}

// ── HTTP client ──

func TestNewHTTPClient_Configured(t *testing.T) {
	c := NewHTTPClient("http://registry.local", 5*time.Second, "tok")
	require.NotNil(t, c.Client)
	assert.Equal(t, "http://registry.local", c.BaseURL)
	assert.Equal(t, "tok", c.Token)
}

// ── JWT ──

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: sub, IssuedAt: jwt.NewNumericDate(time.Now())}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("whatever"))
	require.NoError(t, err)
	return s
}

func TestTokenSubject(t *testing.T) {
	sub, err := TokenSubject(signedToken(t, "device-42"))
	require.NoError(t, err)
	assert.Equal(t, "device-42", sub)
}

func TestTokenSubject_Empty(t *testing.T) {
	_, err := TokenSubject(signedToken(t, ""))
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestTokenSubject_Malformed(t *testing.T) {
	_, err := TokenSubject("not-a-jwt")
	assert.Error(t, err)
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "missing token", header: "Bearer", wantErr: true},
		{name: "other scheme", header: "Basic abc", wantErr: true},
		{name: "empty", header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ── UUID ──

func TestUUIDGenerator_Version7(t *testing.T) {
	id, err := uuid.Parse(NewUUIDGenerator().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

// ── Broadcaster ──

func TestBroadcaster_DeliversLatestToNewSubscriber(t *testing.T) {
	b := NewBroadcaster[int]()
	b.Publish(1)
	b.Publish(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	assert.Equal(t, 2, <-ch)
}

func TestBroadcaster_SlowSubscriberSeesLatest(t *testing.T) {
	b := NewBroadcaster[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	for i := 1; i <= 10; i++ {
		b.Publish(i)
	}

	assert.Equal(t, 10, <-ch)
	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 10, latest)
}

func TestBroadcaster_ClosesOnCancel(t *testing.T) {
	b := NewBroadcaster[string]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	b.Publish("after close")
}
