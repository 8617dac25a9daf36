// Package campaign owns giveaway state: at most one active campaign per
// group, idempotent joins, and unbiased winner draws on manual or
// time-driven conclusion.
package campaign

import (
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"groupkeeper/internal/identity"
	"groupkeeper/internal/schedule"
)

var (
	ErrActive          = errors.New("campaign already active")
	ErrNotFound        = errors.New("no active campaign")
	ErrInvalidWinners  = errors.New("winner count must be positive")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// Campaign is persisted as-is. Times are unix milliseconds so documents
// written by earlier deployments load unchanged.
type Campaign struct {
	Description  string   `json:"description"`
	WinnerCount  int      `json:"winnerCount"`
	StartTime    int64    `json:"startTime"`
	EndTime      int64    `json:"endTime"`
	Participants []string `json:"participants"`
	IsActive     bool     `json:"isActive"`
}

func (c Campaign) Start() time.Time { return time.UnixMilli(c.StartTime) }

func (c Campaign) End() time.Time { return time.UnixMilli(c.EndTime) }

func (c Campaign) clone() Campaign {
	c.Participants = append([]string{}, c.Participants...)
	return c
}

// Table maps group id to that group's latest campaign.
type Table map[string]Campaign

// Result describes one concluded campaign.
type Result struct {
	GroupID      string
	Description  string
	Winners      []string
	Participants int
}

type JoinOutcome int

const (
	Joined JoinOutcome = iota
	AlreadyJoined
)

type Engine struct {
	mu    sync.Mutex
	clock schedule.Clock
	rng   *rand.Rand
	table map[string]*Campaign
}

func New(clock schedule.Clock, rng *rand.Rand) *Engine {
	if clock == nil {
		clock = schedule.RealClock()
	}
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{clock: clock, rng: rng, table: make(map[string]*Campaign)}
}

// Restore replaces the in-memory table with a persisted one, normalizing
// identities and dropping duplicate participants.
func (e *Engine) Restore(table Table) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.table = make(map[string]*Campaign, len(table))
	for groupID, c := range table {
		c = c.clone()
		c.Participants = identity.NormalizeAll(c.Participants)
		e.table[identity.Normalize(groupID)] = &c
	}
}

// Snapshot returns a deep copy suitable for persisting.
func (e *Engine) Snapshot() Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(Table, len(e.table))
	for groupID, c := range e.table {
		out[groupID] = c.clone()
	}
	return out
}

func (e *Engine) Start(groupID, description string, winnerCount int, d time.Duration) (Campaign, error) {
	if winnerCount < 1 {
		return Campaign{}, ErrInvalidWinners
	}
	if d <= 0 {
		return Campaign{}, ErrInvalidDuration
	}
	groupID = identity.Normalize(groupID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if current := e.table[groupID]; current != nil && current.IsActive {
		return current.clone(), ErrActive
	}
	now := e.clock.Now()
	c := &Campaign{
		Description:  description,
		WinnerCount:  winnerCount,
		StartTime:    now.UnixMilli(),
		EndTime:      now.Add(d).UnixMilli(),
		Participants: []string{},
		IsActive:     true,
	}
	e.table[groupID] = c
	return c.clone(), nil
}

func (e *Engine) Active(groupID string) (Campaign, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.table[identity.Normalize(groupID)]
	if c == nil || !c.IsActive {
		return Campaign{}, false
	}
	return c.clone(), true
}

func (e *Engine) Join(groupID, participant string) (JoinOutcome, error) {
	participant = identity.Normalize(participant)

	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.table[identity.Normalize(groupID)]
	if c == nil || !c.IsActive {
		return 0, ErrNotFound
	}
	for _, existing := range c.Participants {
		if existing == participant {
			return AlreadyJoined, nil
		}
	}
	c.Participants = append(c.Participants, participant)
	return Joined, nil
}

// End concludes the group's active campaign. The active flag is checked and
// cleared under the same lock, so a concurrent sweep cannot conclude it a
// second time.
func (e *Engine) End(groupID string) (Result, error) {
	groupID = identity.Normalize(groupID)

	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.table[groupID]
	if c == nil || !c.IsActive {
		return Result{}, ErrNotFound
	}
	return e.concludeLocked(groupID, c), nil
}

// Sweep concludes every active campaign whose end time is at or before now.
// Results are ordered by group id.
func (e *Engine) Sweep(now time.Time) []Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var results []Result
	for groupID, c := range e.table {
		if !c.IsActive || c.EndTime > now.UnixMilli() {
			continue
		}
		results = append(results, e.concludeLocked(groupID, c))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].GroupID < results[j].GroupID })
	return results
}

func (e *Engine) concludeLocked(groupID string, c *Campaign) Result {
	c.IsActive = false
	return Result{
		GroupID:      groupID,
		Description:  c.Description,
		Winners:      PickWinners(e.rng, c.Participants, c.WinnerCount),
		Participants: len(c.Participants),
	}
}

// PickWinners draws min(count, len(participants)) distinct participants
// uniformly without replacement using a partial Fisher-Yates shuffle. The
// input slice is not modified.
func PickWinners(rng *rand.Rand, participants []string, count int) []string {
	pool := append([]string{}, participants...)
	if count >= len(pool) {
		return pool
	}
	if count <= 0 {
		return []string{}
	}
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count]
}
