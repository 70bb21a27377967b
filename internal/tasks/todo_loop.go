package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"remindbot/internal/store"
)

// DMSender delivers a direct message to a user.
type DMSender interface {
	SendDM(userID, content string) error
}

const todoSummaryHour = 7

// TodoLoop sends each user a summary of their open todos once a day at
// 7am local time.
type TodoLoop struct {
	store  *store.Store
	sender DMSender
	loc    *time.Location
}

// NewTodoLoop builds the loop for the given timezone.
func NewTodoLoop(s *store.Store, sender DMSender, loc *time.Location) *TodoLoop {
	return &TodoLoop{store: s, sender: sender, loc: loc}
}

func (l *TodoLoop) Name() string { return "todo" }

// NextRun returns the next 7am in the loop's timezone.
func (l *TodoLoop) NextRun(now time.Time) time.Time {
	local := now.In(l.loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), todoSummaryHour, 0, 0, 0, l.loc)
	if !local.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

func (l *TodoLoop) Tick(ctx context.Context) error {
	todos, err := l.store.ListOpenTodos(ctx)
	if err != nil {
		return err
	}

	byUser := make(map[string][]store.Todo)
	for _, t := range todos {
		byUser[t.UserID] = append(byUser[t.UserID], t)
	}

	for userID, items := range byUser {
		sort.Slice(items, func(i, j int) bool {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})

		var b strings.Builder
		b.WriteString("Good morning! Here is your current todo list:\n")
		for i, item := range items {
			fmt.Fprintf(&b, "%d) %s\n", i+1, item.Content)
		}
		if err := l.sender.SendDM(userID, strings.TrimRight(b.String(), "\n")); err != nil {
			return fmt.Errorf("failed to send todo summary to %s: %w", userID, err)
		}
	}
	return nil
}
