// Package topicstore loads conversation topics from YAML files and serves
// them from an in-memory snapshot. The snapshot is swapped atomically on
// reload; a broken reload keeps the previous topics in service.
package topicstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
)

// topicFile is the on-disk YAML shape of a single topic.
type topicFile struct {
	ID                 string `yaml:"id" validate:"required,slug"`
	Title              string `yaml:"title" validate:"required"`
	TitleNL            string `yaml:"title_nl" validate:"required"`
	Level              string `yaml:"level" validate:"required,oneof=beginner intermediate advanced"`
	Description        string `yaml:"description"`
	Persona            string `yaml:"persona" validate:"required"`
	Starter            string `yaml:"starter" validate:"required"`
	StarterTranslation string `yaml:"starter_translation" validate:"required"`
	Suggestions        []struct {
		Dutch   string `yaml:"dutch" validate:"required"`
		English string `yaml:"english" validate:"required"`
	} `yaml:"suggestions" validate:"required,min=1,max=3,dive"`
	Vocabulary []struct {
		Dutch    string `yaml:"dutch" validate:"required"`
		English  string `yaml:"english" validate:"required"`
		Category string `yaml:"category"`
	} `yaml:"vocabulary" validate:"dive"`
}

// Store implements domain.TopicSource backed by a directory of YAML files.
type Store struct {
	dir      string
	validate *validator.Validate
	debounce time.Duration

	mu     sync.RWMutex
	topics map[string]domain.Topic
	order  []string
}

// New creates a store for the given directory. Call Load before serving.
func New(dir string) *Store {
	v := validator.New()
	// Topic IDs become URL path segments; keep them to lowercase slugs.
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for _, r := range s {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
				return false
			}
		}
		return true
	})
	return &Store{
		dir:      dir,
		validate: v,
		debounce: 250 * time.Millisecond,
		topics:   map[string]domain.Topic{},
	}
}

var _ domain.TopicSource = (*Store)(nil)

// Load reads every *.yaml / *.yml file in the directory and swaps the
// snapshot. Files that fail to parse or validate are skipped with a warning;
// Load fails only when no topic survives.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("op=topicstore.Load: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	topics := make(map[string]domain.Topic, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		topic, err := s.loadFile(path)
		if err != nil {
			slog.Warn("skipping topic file", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if _, dup := topics[topic.ID]; dup {
			slog.Warn("duplicate topic id, keeping earlier file", slog.String("id", topic.ID), slog.String("path", path))
			continue
		}
		topics[topic.ID] = topic
	}

	if len(topics) == 0 {
		return fmt.Errorf("op=topicstore.Load: no valid topics in %s", s.dir)
	}

	// Listing order: easiest level first, then title.
	order := make([]string, 0, len(topics))
	for id := range topics {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := topics[order[i]], topics[order[j]]
		if levelRank(a.Level) != levelRank(b.Level) {
			return levelRank(a.Level) < levelRank(b.Level)
		}
		return a.Title < b.Title
	})

	s.mu.Lock()
	s.topics = topics
	s.order = order
	s.mu.Unlock()

	observability.TopicsLoaded.Set(float64(len(topics)))
	slog.Info("topics loaded", slog.String("dir", s.dir), slog.Int("count", len(topics)))
	return nil
}

func (s *Store) loadFile(path string) (domain.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Topic{}, err
	}

	var tf topicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return domain.Topic{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := s.validate.Struct(&tf); err != nil {
		return domain.Topic{}, fmt.Errorf("validate: %w", err)
	}

	topic := domain.Topic{
		ID:                 tf.ID,
		Title:              tf.Title,
		TitleNL:            tf.TitleNL,
		Level:              domain.Level(tf.Level),
		Description:        tf.Description,
		Persona:            strings.TrimSpace(tf.Persona),
		Starter:            tf.Starter,
		StarterTranslation: tf.StarterTranslation,
	}
	for _, sg := range tf.Suggestions {
		topic.Suggestions = append(topic.Suggestions, domain.Suggestion{Dutch: sg.Dutch, English: sg.English})
	}
	for _, v := range tf.Vocabulary {
		category := strings.ToLower(strings.TrimSpace(v.Category))
		if category == "" {
			category = "algemeen"
		}
		topic.Vocabulary = append(topic.Vocabulary, domain.VocabEntry{Dutch: v.Dutch, English: v.English, Category: category})
	}
	return topic, nil
}

func levelRank(l domain.Level) int {
	switch l {
	case domain.LevelBeginner:
		return 0
	case domain.LevelIntermediate:
		return 1
	default:
		return 2
	}
}

// Get returns the topic with the given id.
func (s *Store) Get(id string) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: topic %q", domain.ErrNotFound, id)
	}
	return topic, nil
}

// List returns all topics, easiest level first, then by title.
func (s *Store) List() []domain.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Topic, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.topics[id])
	}
	return out
}

// Count returns the number of loaded topics. Used by the readiness probe.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.topics)
}
