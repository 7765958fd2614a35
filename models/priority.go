// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"strings"
)

// SyncPriority orders pending mutations. Higher values are drained first.
type SyncPriority uint8

const (
	PriorityLow SyncPriority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{
	PriorityLow:      "LOW",
	PriorityMedium:   "MEDIUM",
	PriorityHigh:     "HIGH",
	PriorityCritical: "CRITICAL",
}

// AllPriorities lists every priority from the most to the least urgent.
var AllPriorities = []SyncPriority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

func (p SyncPriority) String() string {
	if int(p) < len(priorityNames) {
		return priorityNames[p]
	}
	return fmt.Sprintf("SyncPriority(%d)", uint8(p))
}

// Valid reports whether p is one of the declared priorities.
func (p SyncPriority) Valid() bool {
	return p <= PriorityCritical
}

// MarshalText encodes the priority by name so that JSON payloads and
// diagnostics stay human-readable.
func (p SyncPriority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown sync priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *SyncPriority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority converts a priority name (case-insensitive) into a SyncPriority.
func ParsePriority(s string) (SyncPriority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return SyncPriority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sync priority %q", s)
}

// PrioritySet is a small bit set of priorities.
type PrioritySet uint8

// NewPrioritySet builds a set containing the given priorities.
func NewPrioritySet(priorities ...SyncPriority) PrioritySet {
	var s PrioritySet
	for _, p := range priorities {
		if p.Valid() {
			s |= 1 << p
		}
	}
	return s
}

// AllPrioritySet contains every priority.
func AllPrioritySet() PrioritySet {
	return NewPrioritySet(AllPriorities...)
}

func (s PrioritySet) Has(p SyncPriority) bool {
	return p.Valid() && s&(1<<p) != 0
}

func (s PrioritySet) IsEmpty() bool {
	return s == 0
}

func (s PrioritySet) Intersect(other PrioritySet) PrioritySet {
	return s & other
}

func (s PrioritySet) Without(other PrioritySet) PrioritySet {
	return s &^ other
}

// Priorities returns the members of the set from the most to the least urgent.
func (s PrioritySet) Priorities() []SyncPriority {
	out := make([]SyncPriority, 0, len(AllPriorities))
	for _, p := range AllPriorities {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s PrioritySet) String() string {
	ps := s.Priorities()
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
