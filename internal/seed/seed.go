// Package seed imports topics and tips from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"daily-tips/internal/logger"
	"daily-tips/internal/models"
	"daily-tips/internal/tipcontent"
)

type File struct {
	Topics []Topic `yaml:"topics"`
}

type Topic struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
	Tips []Tip  `yaml:"tips"`
}

type Tip struct {
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	SourceURL string `yaml:"source_url"`
}

// Parse decodes and validates a seed document.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Topics))
	for i, t := range f.Topics {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Slug) == "" {
			return nil, fmt.Errorf("topic %d: name and slug are required", i)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("topic %q listed twice", t.Slug)
		}
		seen[t.Slug] = true
		for j, tip := range t.Tips {
			if strings.TrimSpace(tip.Title) == "" || strings.TrimSpace(tip.Body) == "" {
				return nil, fmt.Errorf("topic %q tip %d: title and body are required", t.Slug, j)
			}
		}
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

type Store interface {
	UpsertTopic(ctx context.Context, name, slug string) (*models.Topic, error)
	CreateTip(ctx context.Context, tip *models.Tip) error
}

type Result struct {
	Topics  int
	Created int
	Skipped int
}

type Importer struct {
	store Store
	log   *logger.Logger
}

func NewImporter(store Store, log *logger.Logger) *Importer {
	return &Importer{store: store, log: log}
}

// Import upserts every topic by slug and creates its tips. Tips whose
// fingerprint already exists are counted as skipped.
func (i *Importer) Import(ctx context.Context, f *File) (Result, error) {
	var res Result
	for _, t := range f.Topics {
		topic, err := i.store.UpsertTopic(ctx, strings.TrimSpace(t.Name), strings.TrimSpace(t.Slug))
		if err != nil {
			return res, fmt.Errorf("topic %q: %w", t.Slug, err)
		}
		res.Topics++

		for _, st := range t.Tips {
			tip, err := buildTip(topic.ID, st)
			if err != nil {
				return res, fmt.Errorf("topic %q tip %q: %w", t.Slug, st.Title, err)
			}
			err = i.store.CreateTip(ctx, tip)
			switch {
			case errors.Is(err, models.ErrDuplicate):
				res.Skipped++
				i.log.Debug("tip already present", "topic", topic.Slug, "title", tip.Title)
			case err != nil:
				return res, fmt.Errorf("topic %q tip %q: %w", t.Slug, st.Title, err)
			default:
				res.Created++
			}
		}
	}
	return res, nil
}

func buildTip(topicID int64, st Tip) (*models.Tip, error) {
	body := strings.TrimSpace(st.Body)
	if strings.Contains(body, "<") {
		text, err := tipcontent.PlainText(body)
		if err != nil {
			return nil, err
		}
		body = text
	}
	tip := &models.Tip{
		TopicID: topicID,
		Title:   strings.TrimSpace(st.Title),
		Body:    body,
	}
	if u := strings.TrimSpace(st.SourceURL); u != "" {
		tip.SourceURL = &u
	}
	return tip, nil
}
