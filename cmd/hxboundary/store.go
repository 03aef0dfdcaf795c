package main

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Task is one row of the demo board.
type Task struct {
	ID        string
	Title     string
	Done      bool
	CreatedAt time.Time
}

// Store is an in-memory task store backing the demo page.
type Store struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	nextID int
}

// NewStore creates a store with sample data.
func NewStore() *Store {
	s := &Store{
		tasks:  make(map[string]*Task),
		nextID: 1,
	}

	s.Add("Buy groceries")
	s.Add("Review PR #123")
	s.Add("Write documentation")

	return s
}

// Add creates a task and returns its ID.
func (s *Store) Add(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("task-%d", s.nextID)
	s.nextID++
	s.tasks[id] = &Task{ID: id, Title: title, CreatedAt: time.Now()}
	return id
}

// Toggle flips the done flag of a task.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Done = !task.Done
	return true
}

// List returns copies of all tasks, oldest first.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		result = append(result, *task)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
