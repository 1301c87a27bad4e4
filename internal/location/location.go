// Package location defines the location-provider capability consumed by the
// tracking controller, and a Feed provider for fixes pushed from outside the process.
package location

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("location: timed out waiting for a fix")

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// AccuracyTier is a named precision/power tradeoff offered by the provider.
type AccuracyTier string

const (
	AccuracyLow      AccuracyTier = "low"
	AccuracyBalanced AccuracyTier = "balanced"
	AccuracyHigh     AccuracyTier = "high"
	AccuracyBest     AccuracyTier = "best"
)

// Position is a fix as reported by the provider. Timestamp is unix milliseconds.
type Position struct {
	Latitude  float64  `json:"latitude" yaml:"lat"`
	Longitude float64  `json:"longitude" yaml:"lng"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Altitude  *float64 `json:"altitude,omitempty" yaml:"alt,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Heading   *float64 `json:"heading,omitempty" yaml:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

type WatchOptions struct {
	Accuracy          AccuracyTier
	MinInterval       time.Duration
	MinDistanceMeters float64
}

type Subscription interface {
	Remove()
}

// Provider is the device location capability. WatchPosition must not invoke
// onUpdate synchronously from within the WatchPosition call.
type Provider interface {
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	CurrentPosition(ctx context.Context, accuracy AccuracyTier, timeout, maxAge time.Duration) (Position, error)
	WatchPosition(ctx context.Context, opts WatchOptions, onUpdate func(Position)) (Subscription, error)
}
